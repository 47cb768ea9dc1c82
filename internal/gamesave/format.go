package gamesave

import "github.com/vovakirdan/powdersave/internal/core"

var (
	legacyMagic = []byte("PSv")
	taggedMagic = []byte("OPS1")
)

// Tagged header: magic[4] major minor cellSize flags bw:u16 bh:u16 bodyLen:u32.
const taggedHeaderLen = 16

// Tagged header flag bits.
const (
	flagPressure uint8 = 1 << iota
	flagAmbientHeat
	flagBlockAir
	flagGravity
	flagRNGState
	flagDeterminism

	knownHeaderFlags = flagPressure | flagAmbientHeat | flagBlockAir | flagGravity | flagRNGState | flagDeterminism
)

// Block tags in the tagged body. Each block is tag[4] len:u32 payload.
const (
	tagPalette     = "PALT"
	tagWalls       = "WALL"
	tagFans        = "FANV"
	tagPressure    = "PRES"
	tagVelocity    = "VELO"
	tagAmbientHeat = "AHEA"
	tagBlockAir    = "BAIR"
	tagGravity     = "GRAV"
	tagParticles   = "PART"
	tagSigns       = "SIGN"
	tagStkm        = "STKM"
	tagSimOptions  = "SIMO"
	tagRNGState    = "RNGS"
	tagAuthors     = "AUTH"
)

const blockHeaderLen = 8

// Particle descriptor bits. Each set bit means the field follows the fixed
// type/x/y prefix, in bit order.
const (
	descLife uint16 = 1 << iota
	descCtype
	descVelocity
	descTemp
	descTmp
	descTmp2
	descTmp3
	descTmp4
	descDcolour
	descFlags
	descBond0
	descBond1

	// descExtension marks a length-prefixed trailer written by newer versions.
	descExtension uint16 = 1 << 15

	knownDescBits = descLife | descCtype | descVelocity | descTemp | descTmp | descTmp2 |
		descTmp3 | descTmp4 | descDcolour | descFlags | descBond0 | descBond1 | descExtension
)

// Smallest and largest particle records: type, x, y plus every optional field.
const (
	minParticleRecord = 2 + 2 + 4 + 4
	maxParticleRecord = minParticleRecord + 4*12 + 4
)

// simOptionsLen is the size of the SIMO payload this version writes.
const simOptionsLen = 29

// bodySlack covers the palette, signs, authors and blocks from newer writers.
const bodySlack = 1 << 20

// maxBodyLen bounds the decompressed body of a save of the given block size.
func maxBodyLen(size core.Vec2) uint64 {
	cells := uint64(size.Area())
	pixels := cells * CellSize * CellSize
	// walls 1, fans 8, pressure+velocity 12, heat 4, block air 2, gravity 16
	grids := cells * 43
	return grids + pixels*maxParticleRecord + 16*blockHeaderLen + bodySlack
}
