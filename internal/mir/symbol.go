package mir

import "strconv"

// Symbol names a value, a block label or a function. Two symbols denote the
// same binding iff both Name and ID are equal; Name alone is not unique.
type Symbol struct {
	Name string `json:"name" msgpack:"name"`
	ID   uint64 `json:"id" msgpack:"id"`
}

// Sym is a shorthand constructor used by front ends and tests.
func Sym(name string, id uint64) Symbol {
	return Symbol{Name: name, ID: id}
}

func (s Symbol) String() string {
	if s.Name == "" {
		return "_@" + strconv.FormatUint(s.ID, 10)
	}
	return s.Name + "@" + strconv.FormatUint(s.ID, 10)
}
