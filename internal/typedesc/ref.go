package typedesc

import "encoding/json"

// Ref wraps a Description for transport. The JSON form is the canonical
// source string, which Parse round-trips losslessly; a string an older
// build cannot interpret decodes as Unknown rather than failing.
type Ref struct {
	Description
}

// Describe wraps a Description in a Ref.
func Describe(d Description) Ref {
	return Ref{Description: d}
}

// Equal reports structural equality of the wrapped descriptions.
func (r Ref) Equal(other Ref) bool {
	return Equal(r.Description, other.Description)
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Description == nil {
		return json.Marshal("")
	}
	return json.Marshal(r.Description.String())
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		r.Description = nil
		return nil
	}
	d, err := Parse(s)
	if err != nil {
		d = &Unknown{Text: s}
	}
	r.Description = d
	return nil
}
