package classfile

import "encoding/json"

// wireMethod mirrors Method but exposes Code as a JSON-friendly byte slice and keeps RawDesc as the
// only descriptor field on the wire; Desc is reconstructed from it on load.
type wireMethod struct {
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	MaxLocals int    `json:"max_locals"`
	Code      []byte `json:"code"`
}

type wireClass struct {
	Methods []wireMethod `json:"methods"`
}

// Decode parses the class-file-like structure spec §6 describes (a list of method records: name,
// descriptor, max-locals, linear bytecode) from its JSON encoding. There is no real JVM .class binary
// format here: the front end that would produce one is out of scope (see package doc), so the encoded
// form this module actually reads and writes is JSON, the same way classfile.Encode produces it.
func Decode(data []byte) (Class, error) {
	var w wireClass
	if err := json.Unmarshal(data, &w); err != nil {
		return Class{}, err
	}
	c := Class{Methods: make([]Method, len(w.Methods))}
	for i1, wm := range w.Methods {
		desc, err := ParseDescriptor(wm.Desc)
		if err != nil {
			return Class{}, err
		}
		c.Methods[i1] = Method{
			Name:      wm.Name,
			Desc:      desc,
			RawDesc:   wm.Desc,
			MaxLocals: wm.MaxLocals,
			Code:      wm.Code,
		}
	}
	return c, nil
}

// Encode serializes a Class to the same JSON form Decode reads, for tests and tools that need to hand
// a compiled fixture to the CLI without building one by hand every time.
func Encode(c Class) ([]byte, error) {
	w := wireClass{Methods: make([]wireMethod, len(c.Methods))}
	for i1, m := range c.Methods {
		w.Methods[i1] = wireMethod{
			Name:      m.Name,
			Desc:      m.Desc.String(),
			MaxLocals: m.MaxLocals,
			Code:      m.Code,
		}
	}
	return json.MarshalIndent(w, "", "  ")
}
