package coerce

import "fmt"

// Kind identifies the concrete type carried by a Value.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindDateTime
	KindPath
	KindMIME
	KindList
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindBytes:    "bytes",
	KindDateTime: "datetime",
	KindPath:     "path",
	KindMIME:     "mime",
	KindList:     "list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a configuration string to a Kind.
func ParseKind(name string) (Kind, error) {
	for kind, kindName := range kindNames {
		if kind == KindUnknown {
			continue
		}
		if kindName == name {
			return kind, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown value kind %q", name)
}
