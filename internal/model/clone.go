package model

// Clone returns a deep copy of the profile. Nil and empty collections keep
// their distinction so the encoded document is unchanged.
func (p Profile) Clone() Profile {
	out := p
	out.Syllabus = CloneSyllabus(p.Syllabus)
	out.Scores = cloneSlice(p.Scores)
	out.Tasks = cloneSlice(p.Tasks)
	return out
}

// CloneSyllabus deep-copies a subject list.
func CloneSyllabus(in []Subject) []Subject {
	out := cloneSlice(in)
	for i := range out {
		out[i].Topics = cloneSlice(out[i].Topics)
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
