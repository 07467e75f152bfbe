package scene

// Clone returns a deep copy sharing no mutable memory with s. Nil slices stay
// nil so that a clone compares equal to its source with reflect.DeepEqual.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Pages != nil {
		out.Pages = make([]Page, len(s.Pages))
		for i, p := range s.Pages {
			out.Pages[i] = p.Clone()
		}
	}
	if s.AudioLayers != nil {
		out.AudioLayers = make([]AudioLayer, len(s.AudioLayers))
		for i, l := range s.AudioLayers {
			out.AudioLayers[i] = l.Clone()
		}
	}
	return out
}

func (p Page) Clone() Page {
	out := p
	out.Animation = p.Animation.Clone()
	if p.Elements != nil {
		out.Elements = make([]Element, len(p.Elements))
		for i, el := range p.Elements {
			out.Elements[i] = el.Clone()
		}
	}
	return out
}

func (e Element) Clone() Element {
	out := e
	out.Animation = e.Animation.Clone()
	return out
}

func (a *Animation) Clone() *Animation {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

func (l AudioLayer) Clone() AudioLayer {
	out := l
	if l.Clips != nil {
		out.Clips = make([]AudioClip, len(l.Clips))
		copy(out.Clips, l.Clips)
	}
	return out
}

// PageIndex returns the index of the page with the given ID or -1.
func (s Snapshot) PageIndex(id string) int {
	for i := range s.Pages {
		if s.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

// ElementIndex returns the index of the element with the given ID or -1.
func (p Page) ElementIndex(id string) int {
	for i := range p.Elements {
		if p.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// LayerIndex returns the index of the audio layer with the given ID or -1.
func (s Snapshot) LayerIndex(id string) int {
	for i := range s.AudioLayers {
		if s.AudioLayers[i].ID == id {
			return i
		}
	}
	return -1
}

// ClipIndex returns the index of the clip inside the layer or -1.
func (l AudioLayer) ClipIndex(id string) int {
	for i := range l.Clips {
		if l.Clips[i].ID == id {
			return i
		}
	}
	return -1
}

// FindClip locates a clip across all layers.
func (s Snapshot) FindClip(id string) (layer, clip int, ok bool) {
	for li := range s.AudioLayers {
		if ci := s.AudioLayers[li].ClipIndex(id); ci >= 0 {
			return li, ci, true
		}
	}
	return -1, -1, false
}

// ImageSources lists the distinct image sources referenced by the pages, in
// first-use order.
func (s Snapshot) ImageSources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.Pages {
		for _, el := range p.Elements {
			if el.Kind != KindImage || el.Src == "" || seen[el.Src] {
				continue
			}
			seen[el.Src] = true
			out = append(out, el.Src)
		}
	}
	return out
}
