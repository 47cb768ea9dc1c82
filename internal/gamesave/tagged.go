package gamesave

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/elements"
	"github.com/vovakirdan/powdersave/internal/plane"
)

type taggedDecoder struct {
	gs      *GameSave
	table   *elements.Table
	opts    DecodeOptions
	flags   uint8
	blocks  map[string][]byte
	palette map[int]int
}

func decodeTagged(data []byte, table *elements.Table, opts DecodeOptions) (*GameSave, error) {
	r := newReader(data, "header")
	r.skip(len(taggedMagic))
	version := Version{Major: int(r.u8()), Minor: int(r.u8())}
	cellSize := int(r.u8())
	flags := r.u8()
	size := core.V(int(r.u16()), int(r.u16()))
	bodyLen := r.u32()
	if r.err != nil {
		return nil, r.err
	}

	if version.Less(MinTaggedVersion) {
		return nil, parseErrorf(ParseWrongVersion, "version %s older than %s", version, MinTaggedVersion)
	}
	newer := CurrentVersion.Less(version)
	if cellSize != CellSize {
		return nil, parseErrorf(ParseInvalidDimensions, "cell size %d, expected %d", cellSize, CellSize)
	}
	if !opts.Limits.allows(size) {
		return nil, parseErrorf(ParseInvalidDimensions, "save is %s blocks, limit %s", size, opts.Limits.MaxBlockSize)
	}
	if flags&^knownHeaderFlags != 0 {
		if !newer {
			return nil, parseErrorf(ParseCorrupt, "unknown header flags %#02x", flags&^knownHeaderFlags)
		}
		opts.Logger.Debug("ignoring header flags from newer version", "flags", flags&^knownHeaderFlags)
	}
	if bound := maxBodyLen(size); uint64(bodyLen) > bound {
		return nil, parseErrorf(ParseCorrupt, "declared body length %d exceeds %d for %s blocks", bodyLen, bound, size)
	}

	body, err := decompress(data[taggedHeaderLen:], int(bodyLen))
	if err != nil {
		return nil, err
	}
	blocks, err := splitBlocks(body, opts)
	if err != nil {
		return nil, err
	}

	gs := &GameSave{
		Version:          version,
		FromNewerVersion: newer,
		PmapBits:         CurrentPmapBits,
		SimOptions:       DefaultSimOptions(),
	}
	gs.allocate(size)
	gs.HasPressure = flags&flagPressure != 0
	gs.HasAmbientHeat = flags&flagAmbientHeat != 0
	gs.HasBlockAirMaps = flags&flagBlockAir != 0
	gs.HasGravityMaps = flags&flagGravity != 0
	gs.HasRNGState = flags&flagRNGState != 0
	gs.EnsureDeterminism = flags&flagDeterminism != 0

	d := &taggedDecoder{gs: gs, table: table, opts: opts, flags: flags, blocks: blocks}
	steps := []func() error{
		d.readPalette,
		d.readWalls,
		d.readFans,
		d.readAir,
		d.readAmbientHeat,
		d.readBlockAir,
		d.readGravity,
		d.readParticles,
		d.readStkm,
		d.readSigns,
		d.readSimOptions,
		d.readRNGState,
		d.readAuthors,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	// Drop empty and out-of-canvas particles, then fix up references.
	px := gs.PixelSize()
	bounds := core.NewRect(0, 0, px.X, px.Y)
	before := len(gs.Particles)
	gs.Particles, gs.Stkm = compactParticles(gs.Particles, gs.Stkm, func(p *Particle) bool {
		return p.Type != elements.None && bounds.ContainsF(p.X, p.Y)
	})
	if dropped := before - len(gs.Particles); dropped > 0 {
		opts.Logger.Debug("dropped particles", "count", dropped)
	}
	gs.MissingElements.recount(gs.Particles)
	return gs, nil
}

// splitBlocks indexes the body by tag. Unknown tags are skipped; a known tag
// may appear once.
func splitBlocks(body []byte, opts DecodeOptions) (map[string][]byte, error) {
	blocks := make(map[string][]byte)
	r := newReader(body, "body")
	for r.remaining() > 0 {
		tag := string(r.take(4))
		n := r.u32()
		if r.err != nil {
			return nil, r.err
		}
		if uint64(n) > uint64(r.remaining()) {
			return nil, parseErrorf(ParseCorrupt, "block %q claims %d bytes, %d remain", tag, n, r.remaining())
		}
		payload := r.take(int(n))
		if !knownTag(tag) {
			opts.Logger.Debug("skipping unknown block", "tag", tag, "bytes", n)
			continue
		}
		if _, dup := blocks[tag]; dup {
			return nil, parseErrorf(ParseCorrupt, "block %q repeated", tag)
		}
		blocks[tag] = payload
	}
	return blocks, nil
}

func knownTag(tag string) bool {
	switch tag {
	case tagPalette, tagWalls, tagFans, tagPressure, tagVelocity, tagAmbientHeat, tagBlockAir,
		tagGravity, tagParticles, tagSigns, tagStkm, tagSimOptions, tagRNGState, tagAuthors:
		return true
	}
	return false
}

// gated returns the payload of a block controlled by a header flag. A set
// flag requires the block; a clear flag forbids it.
func (d *taggedDecoder) gated(tag string, flag uint8) ([]byte, bool, error) {
	payload, present := d.blocks[tag]
	set := d.flags&flag != 0
	switch {
	case set && !present:
		return nil, false, parseErrorf(ParseCorrupt, "header announces %s but the block is missing", tag)
	case !set && present:
		return nil, false, parseErrorf(ParseCorrupt, "block %s present but not announced in header", tag)
	}
	return payload, present, nil
}

func expectLen(tag string, payload []byte, want int) error {
	if len(payload) != want {
		return parseErrorf(ParseCorrupt, "block %s is %d bytes, expected %d", tag, len(payload), want)
	}
	return nil
}

func readFloats(r *reader, p plane.Plane[float32]) {
	data := p.Data()
	for i := range data {
		data[i] = r.f32()
	}
}

func readBytes(r *reader, p plane.Plane[uint8]) {
	copy(p.Data(), r.take(p.Len()))
}

func (d *taggedDecoder) readPalette() error {
	payload, ok := d.blocks[tagPalette]
	if !ok {
		return nil
	}
	r := newReader(payload, tagPalette)
	count := int(r.u16())
	items := make([]PaletteItem, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		id := int(r.u16())
		name := string(r.take(int(r.u8())))
		items = append(items, PaletteItem{Name: name, ID: id})
	}
	if r.err != nil {
		return r.err
	}
	mapping, err := TranslatePalette(items, d.table, &d.gs.MissingElements)
	if err != nil {
		return err
	}
	d.gs.Palette = items
	d.palette = mapping
	if n := d.gs.MissingElements.Len(); n > 0 {
		d.opts.Logger.Debug("palette names unknown elements", "names", d.gs.MissingElements.Names())
	}
	return nil
}

// runtimeID translates a save element ID. Saves without a palette use
// runtime IDs directly.
func (d *taggedDecoder) runtimeID(saveID int) (int, bool) {
	if d.palette == nil {
		return saveID, d.table.Valid(saveID)
	}
	id, ok := d.palette[saveID]
	return id, ok
}

func (d *taggedDecoder) readWalls() error {
	payload, ok := d.blocks[tagWalls]
	if !ok {
		return parseErrorf(ParseCorrupt, "wall block missing")
	}
	if err := expectLen(tagWalls, payload, d.gs.BlockMap.Len()); err != nil {
		return err
	}
	walls := d.gs.BlockMap.Data()
	copy(walls, payload)
	replaced := 0
	for i, w := range walls {
		if w < WallCount {
			continue
		}
		if !d.gs.FromNewerVersion {
			return parseErrorf(ParseCorrupt, "unknown wall %d at cell %d", w, i)
		}
		walls[i] = WallNone
		replaced++
	}
	if replaced > 0 {
		d.opts.Logger.Debug("cleared walls unknown to this version", "count", replaced)
	}
	return nil
}

func (d *taggedDecoder) readFans() error {
	payload, ok := d.blocks[tagFans]
	if !ok {
		return nil
	}
	if err := expectLen(tagFans, payload, d.gs.FanVelX.Len()*8); err != nil {
		return err
	}
	r := newReader(payload, tagFans)
	readFloats(r, d.gs.FanVelX)
	readFloats(r, d.gs.FanVelY)
	return r.err
}

func (d *taggedDecoder) readAir() error {
	pres, ok, err := d.gated(tagPressure, flagPressure)
	if err != nil || !ok {
		return err
	}
	velo, ok := d.blocks[tagVelocity]
	if !ok {
		return parseErrorf(ParseCorrupt, "pressure present without velocity")
	}
	cells := d.gs.BlockSize.Area()
	if err := expectLen(tagPressure, pres, cells*4); err != nil {
		return err
	}
	if err := expectLen(tagVelocity, velo, cells*8); err != nil {
		return err
	}
	r := newReader(pres, tagPressure)
	readFloats(r, d.gs.Pressure)
	v := newReader(velo, tagVelocity)
	readFloats(v, d.gs.VelocityX)
	readFloats(v, d.gs.VelocityY)
	if r.err != nil {
		return r.err
	}
	return v.err
}

func (d *taggedDecoder) readAmbientHeat() error {
	payload, ok, err := d.gated(tagAmbientHeat, flagAmbientHeat)
	if err != nil || !ok {
		return err
	}
	if err := expectLen(tagAmbientHeat, payload, d.gs.AmbientHeat.Len()*4); err != nil {
		return err
	}
	r := newReader(payload, tagAmbientHeat)
	readFloats(r, d.gs.AmbientHeat)
	return r.err
}

func (d *taggedDecoder) readBlockAir() error {
	payload, ok, err := d.gated(tagBlockAir, flagBlockAir)
	if err != nil || !ok {
		return err
	}
	if err := expectLen(tagBlockAir, payload, d.gs.BlockAir.Len()*2); err != nil {
		return err
	}
	r := newReader(payload, tagBlockAir)
	readBytes(r, d.gs.BlockAir)
	readBytes(r, d.gs.BlockAirH)
	return r.err
}

func (d *taggedDecoder) readGravity() error {
	payload, ok, err := d.gated(tagGravity, flagGravity)
	if err != nil || !ok {
		return err
	}
	if err := expectLen(tagGravity, payload, d.gs.GravMass.Len()*16); err != nil {
		return err
	}
	r := newReader(payload, tagGravity)
	readFloats(r, d.gs.GravMass)
	mask := d.gs.GravMask.Data()
	for i := range mask {
		mask[i] = r.u32()
	}
	readFloats(r, d.gs.GravForceX)
	readFloats(r, d.gs.GravForceY)
	return r.err
}

func (d *taggedDecoder) readParticles() error {
	payload, ok := d.blocks[tagParticles]
	if !ok {
		return nil
	}
	r := newReader(payload, tagParticles)
	count := int(r.u32())
	if r.err != nil {
		return r.err
	}
	if pixels := d.gs.PixelSize().Area(); count > pixels {
		return parseErrorf(ParseCorrupt, "%d particles on a %d-pixel canvas", count, pixels)
	}
	if count*minParticleRecord > r.remaining() {
		return parseErrorf(ParseCorrupt, "%d particles cannot fit in %d bytes", count, r.remaining())
	}

	parts := make([]Particle, count)
	for i := range parts {
		if err := d.readParticle(r, &parts[i]); err != nil {
			return err
		}
	}
	if r.remaining() != 0 {
		return parseErrorf(ParseCorrupt, "%d trailing bytes after particles", r.remaining())
	}
	d.gs.Particles = parts
	return nil
}

func (d *taggedDecoder) readParticle(r *reader, p *Particle) error {
	desc := r.u16()
	if desc&^knownDescBits != 0 {
		return parseErrorf(ParseCorrupt, "particle descriptor has unknown bits %#04x", desc&^knownDescBits)
	}
	saveType := int(r.u16())
	p.X = r.f32()
	p.Y = r.f32()
	p.Bonds = [2]Ref{NoRef, NoRef}

	if desc&descLife != 0 {
		p.Life = int(r.i32())
	}
	if desc&descCtype != 0 {
		p.Ctype = int(r.i32())
	}
	if desc&descVelocity != 0 {
		p.VX = r.f32()
		p.VY = r.f32()
	}
	if desc&descTemp != 0 {
		p.Temp = r.f32()
	}
	if desc&descTmp != 0 {
		p.Tmp = int(r.i32())
	}
	if desc&descTmp2 != 0 {
		p.Tmp2 = int(r.i32())
	}
	if desc&descTmp3 != 0 {
		p.Tmp3 = int(r.i32())
	}
	if desc&descTmp4 != 0 {
		p.Tmp4 = int(r.i32())
	}
	if desc&descDcolour != 0 {
		p.Dcolour = r.u32()
	}
	if desc&descFlags != 0 {
		p.Flags = r.u32()
	}
	if desc&descBond0 != 0 {
		p.Bonds[0] = bondRef(r.i32())
	}
	if desc&descBond1 != 0 {
		p.Bonds[1] = bondRef(r.i32())
	}
	if desc&descExtension != 0 {
		r.skip(int(r.u8()))
	}
	if r.err != nil {
		return r.err
	}

	if saveType == 0 {
		return nil
	}
	typ, ok := d.runtimeID(saveType)
	if !ok {
		return parseErrorf(ParseCorrupt, "particle type %d not in palette", saveType)
	}
	p.Type = typ
	if p.Ctype != 0 && ctypeIsElement(d.table, typ) {
		if p.Ctype < 0 || p.Ctype > maxSaveID {
			return parseErrorf(ParseCorrupt, "particle ctype %d out of range", p.Ctype)
		}
		ctype, ok := d.runtimeID(p.Ctype)
		if !ok {
			return parseErrorf(ParseCorrupt, "particle ctype %d not in palette", p.Ctype)
		}
		p.Ctype = ctype
	}
	return nil
}

func bondRef(v int32) Ref {
	if v < 0 {
		return NoRef
	}
	return Ref(v)
}

func (d *taggedDecoder) readStkm() error {
	payload, ok := d.blocks[tagStkm]
	if !ok {
		return nil
	}
	r := newReader(payload, tagStkm)
	bits := r.u8()
	s := StkmData{
		RocketBoots1: bits&1 != 0,
		RocketBoots2: bits&2 != 0,
		Fan1:         bits&4 != 0,
		Fan2:         bits&8 != 0,
	}
	readList := func() []Ref {
		n := int(r.u16())
		if n*4 > r.remaining() {
			r.skip(n * 4)
			return nil
		}
		list := make([]Ref, 0, n)
		for i := 0; i < n; i++ {
			list = append(list, bondRef(int32(r.u32())))
		}
		return list
	}
	s.RocketBootsFigh = readList()
	s.FanFigh = readList()
	if r.err != nil {
		return r.err
	}
	d.gs.Stkm = s
	return nil
}

func (d *taggedDecoder) readSigns() error {
	payload, ok := d.blocks[tagSigns]
	if !ok {
		return nil
	}
	r := newReader(payload, tagSigns)
	count := int(r.u16())
	if count > MaxSigns {
		return parseErrorf(ParseCorrupt, "%d signs, max %d", count, MaxSigns)
	}
	px := d.gs.PixelSize()
	bounds := core.NewRect(0, 0, px.X, px.Y)
	for i := 0; i < count; i++ {
		s := Sign{X: int(r.u32()), Y: int(r.u32()), Ju: Justification(r.u8())}
		text := r.take(int(r.u16()))
		if r.err != nil {
			return r.err
		}
		if !utf8.Valid(text) {
			return parseErrorf(ParseCorrupt, "sign %d text is not UTF-8", i)
		}
		if s.Ju > JustifyNone {
			if !d.gs.FromNewerVersion {
				return parseErrorf(ParseCorrupt, "sign %d has unknown justification %d", i, s.Ju)
			}
			s.Ju = JustifyLeft
		}
		s.Text = truncateRunes(string(text), MaxSignText)
		if !bounds.Contains(s.X, s.Y) {
			d.opts.Logger.Debug("dropping sign outside canvas", "x", s.X, "y", s.Y)
			continue
		}
		d.gs.Signs = append(d.gs.Signs, s)
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func (d *taggedDecoder) readSimOptions() error {
	payload, ok := d.blocks[tagSimOptions]
	if !ok {
		return nil
	}
	if len(payload) < simOptionsLen {
		return parseErrorf(ParseCorrupt, "block %s is %d bytes, need %d", tagSimOptions, len(payload), simOptionsLen)
	}
	r := newReader(payload, tagSimOptions)
	o := &d.gs.SimOptions
	bits := r.u8()
	o.WaterEEnabled = bits&1 != 0
	o.LegacyEnable = bits&2 != 0
	o.GravityEnable = bits&4 != 0
	o.AHeatEnable = bits&8 != 0
	o.Paused = bits&16 != 0
	o.GravityMode = int(r.u8())
	o.CustomGravityX = r.f32()
	o.CustomGravityY = r.f32()
	o.AirMode = int(r.u8())
	o.AmbientAirTemp = r.f32()
	o.VorticityCoeff = r.f32()
	o.EdgeMode = int(r.u8())
	o.FrameCount = r.u64()
	d.gs.PmapBits = int(r.u8())
	if o.GravityMode > GravityCustom || o.EdgeMode > EdgeLoop {
		if !d.gs.FromNewerVersion {
			return parseErrorf(ParseCorrupt, "unknown gravity mode %d or edge mode %d", o.GravityMode, o.EdgeMode)
		}
		o.GravityMode = core.Clamp(o.GravityMode, GravityVertical, GravityCustom)
		o.EdgeMode = core.Clamp(o.EdgeMode, EdgeVoid, EdgeLoop)
	}
	if extra := r.remaining(); extra > 0 {
		d.opts.Logger.Debug("ignoring trailing simulation options", "bytes", extra)
	}
	return r.err
}

func (d *taggedDecoder) readRNGState() error {
	payload, ok, err := d.gated(tagRNGState, flagRNGState)
	if err != nil || !ok {
		return err
	}
	if err := expectLen(tagRNGState, payload, 16); err != nil {
		return err
	}
	r := newReader(payload, tagRNGState)
	d.gs.RNGState = [2]uint64{r.u64(), r.u64()}
	return r.err
}

func (d *taggedDecoder) readAuthors() error {
	payload, ok := d.blocks[tagAuthors]
	if !ok || d.opts.SkipAuthors {
		return nil
	}
	var authors map[string]any
	if err := json.Unmarshal(payload, &authors); err != nil {
		return parseErrorf(ParseCorrupt, "authors block: %v", err)
	}
	d.gs.Authors = authors
	return nil
}
