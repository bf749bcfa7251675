package dsl

// Meta returns the first meta block, or nil.
func (d *Document) Meta() *Properties {
	for _, s := range d.Sections {
		if s.Meta != nil {
			return s.Meta
		}
	}
	return nil
}

// Resources returns every resource declaration across all resources sections.
func (d *Document) Resources() []*Resource {
	var out []*Resource
	for _, s := range d.Sections {
		if s.Resources != nil {
			out = append(out, s.Resources.Decls...)
		}
	}
	return out
}

// Page returns the first page section, or nil.
func (d *Document) Page() *PageSection {
	for _, s := range d.Sections {
		if s.Page != nil {
			return s.Page
		}
	}
	return nil
}

// Layout merges all layout blocks of the page.
func (p *PageSection) Layout() []*Property {
	var out []*Property
	for _, b := range p.Blocks {
		if b.Layout != nil {
			out = append(out, b.Layout.Entries...)
		}
	}
	return out
}

// Strings merges all strings blocks of the page.
func (p *PageSection) Strings() []*Property {
	var out []*Property
	for _, b := range p.Blocks {
		if b.Strings != nil {
			out = append(out, b.Strings.Entries...)
		}
	}
	return out
}

// Map returns the entries by key. Later keys win.
func (p *Properties) Map() map[string]*Value {
	out := map[string]*Value{}
	if p == nil {
		return out
	}
	for _, e := range p.Entries {
		out[e.Key] = e.Value
	}
	return out
}

// Text flattens a scalar value; lists yield "".
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// Strings flattens a list value; a scalar becomes a single-element slice.
func (v *Value) Strings() []string {
	if v == nil {
		return nil
	}
	if v.List != nil {
		out := make([]string, 0, len(v.List.Values))
		for _, item := range v.List.Values {
			if s := item.Text(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := v.Text(); s != "" {
		return []string{s}
	}
	return nil
}
