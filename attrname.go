package slots

import "fmt"

// AttrName identifies a slot inside namespaced storage. Plain slots use the
// bare name; dictionary sub-slots carry the parent slot name plus the storage
// key, so they behave like ordinary attribute names for keying and rendering
// while staying comparable.
type AttrName struct {
	Name string
	Key  any
}

// Name wraps a plain slot name.
func Name(name string) AttrName {
	return AttrName{Name: name}
}

func subName(parent string, key any) AttrName {
	return AttrName{Name: parent, Key: key}
}

// IsSub reports whether the name identifies a dictionary sub-slot.
func (n AttrName) IsSub() bool {
	return n.Key != nil
}

func (n AttrName) String() string {
	if n.Key == nil {
		return n.Name
	}
	return fmt.Sprintf("%s[%v]", n.Name, n.Key)
}
