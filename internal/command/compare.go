package command

// Different reports whether the remote record must be edited to match the
// local definition. Option order is significant; nil and empty slices are
// treated the same.
func Different(remote Record, local Definition) bool {
	if remote.Description != local.Description {
		return true
	}
	return !optionsEqual(remote.Options, local.Options)
}

func optionsEqual(a, b []Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !optionEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func optionEqual(a, b Option) bool {
	if a.Name != b.Name ||
		a.Description != b.Description ||
		a.Type != b.Type ||
		a.Required != b.Required {
		return false
	}
	if !choicesEqual(a.Choices, b.Choices) {
		return false
	}
	return optionsEqual(a.Options, b.Options)
}

func choicesEqual(a, b []Choice) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Label != b[i].Label || !valueEqual(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

func valueEqual(a, b ChoiceValue) bool {
	if a.Kind != b.Kind || a.Kind == KindInvalid {
		return false
	}
	switch a.Kind {
	case KindInteger:
		return a.Int == b.Int
	case KindNumber:
		return a.Num == b.Num
	default:
		return a.Str == b.Str
	}
}
