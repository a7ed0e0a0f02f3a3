package analysis

// Clone returns a copy of im that shares no maps with it.
func (im Improvements) Clone() Improvements {
	return Improvements{
		EventNameChanges:    copyMapping(im.EventNameChanges),
		PropertyCorrections: copyMapping(im.PropertyCorrections),
		CategoryCorrections: copyMapping(im.CategoryCorrections),
	}
}

// Clone returns a deep copy of fb. Stored feedback is handed out through
// Clone so callers cannot reach the history.
func (fb Feedback) Clone() Feedback {
	out := fb
	out.Improvements = fb.Improvements.Clone()
	if fb.CorrectedEvents != nil {
		out.CorrectedEvents = make([]Event, len(fb.CorrectedEvents))
		for i, ev := range fb.CorrectedEvents {
			out.CorrectedEvents[i] = ev.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of ev.
func (ev Event) Clone() Event {
	out := ev
	out.Triggers = copyStrings(ev.Triggers)
	out.Sources = copyStrings(ev.Sources)
	if ev.Properties != nil {
		out.Properties = make([]Property, len(ev.Properties))
		for i, p := range ev.Properties {
			p.Example = copyValue(p.Example)
			out.Properties[i] = p
		}
	}
	return out
}

func copyMapping(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// copyValue deep-copies decoded JSON values. Other values are returned as is.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return copyStrings(t)
	default:
		return v
	}
}
