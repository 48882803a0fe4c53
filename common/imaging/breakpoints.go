package imaging

import "sync"

// breakpointSmallerThan reports whether the target box would shrink the
// source in at least one dimension
func breakpointSmallerThan(pixels, width, height int) bool {
	return pixels < width || pixels < height
}

// GenerateBreakpoints produces one rendition per active breakpoint that
// is strictly smaller than the source in at least one dimension.
// Breakpoints at or above the source size, and breakpoints whose resize
// fails, are silently omitted; absence from the result is the signal.
//
// Generation across target sizes runs concurrently; results keep
// configuration order. The caller writes and frees each buffer
// sequentially to bound peak memory.
func GenerateBreakpoints(src *Rendition, cfg Config) []*Rendition {
	if !cfg.ResponsiveDimensions {
		return nil
	}

	meta, ok := Probe(src.Buffer)
	if !ok {
		return nil
	}

	type target struct {
		name   string
		pixels int
	}
	var targets []target
	for _, bp := range cfg.Breakpoints {
		if bp.Dim.IsOff() {
			continue
		}
		if breakpointSmallerThan(bp.Dim.Value(), meta.Width, meta.Height) {
			targets = append(targets, target{name: bp.Name, pixels: bp.Dim.Value()})
		}
	}
	if len(targets) == 0 {
		return nil
	}

	results := make([]*Rendition, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			results[i] = generateBreakpoint(src, cfg, t.name, t.pixels)
		}(i, t)
	}
	wg.Wait()

	renditions := make([]*Rendition, 0, len(targets))
	for _, r := range results {
		if r != nil {
			renditions = append(renditions, r)
		}
	}
	return renditions
}

// generateBreakpoint resizes the source into one breakpoint slot,
// returning nil when the resize fails
func generateBreakpoint(src *Rendition, cfg Config, role string, pixels int) *Rendition {
	out, vmeta, err := resizeTo(src.Buffer, cfg, pixels, pixels)
	if err != nil {
		return nil
	}

	format, ok := formatOf(vmeta.Format)
	if !ok {
		return nil
	}

	return &Rendition{
		Role:     role,
		Name:     Name(role, src.FileName, src.Hash, format.Ext(), cfg),
		FileName: src.FileName,
		Hash:     src.Hash,
		Extname:  format.Ext(),
		MIMEType: format.MIME(),
		Format:   format,
		Width:    vmeta.Width,
		Height:   vmeta.Height,
		Size:     BytesToKB(len(out)),
		Blurhash: src.Blurhash,
		Buffer:   out,
	}
}
