package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Profile fields, in the order the questionnaire collects them.
const (
	KeyName         = "name"
	KeyWorkLocation = "work location"
	KeyDepartment   = "department"
	KeySeniority    = "seniority level"
)

// Keys returns the profile fields in questionnaire order.
func Keys() []string {
	return []string{KeyName, KeyWorkLocation, KeyDepartment, KeySeniority}
}

// Profile is the user's flat set of attributes (name, location, department,
// seniority) used to personalize training content. It remembers insertion
// order so the JSON document reads in the order the answers were given.
//
// The zero value is an empty profile ready to use.
type Profile struct {
	order  []string
	values map[string]string
}

// New returns an empty profile.
func New() Profile {
	return Profile{values: make(map[string]string)}
}

// FromMap builds a profile from m, ordering known fields first.
func FromMap(m map[string]string) Profile {
	p := New()
	for _, k := range Keys() {
		if v, ok := m[k]; ok {
			p.Set(k, v)
		}
	}
	for k, v := range m {
		if _, ok := p.values[k]; !ok {
			p.Set(k, v)
		}
	}
	return p
}

// Set writes value under key. Re-answering a field keeps its original position.
func (p *Profile) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.order = append(p.order, key)
	}
	p.values[key] = value
}

// Get returns the value stored under key.
func (p Profile) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// GetOr returns the value stored under key, or fallback when the field is
// absent or blank.
func (p Profile) GetOr(key, fallback string) string {
	if v, ok := p.values[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Len returns the number of fields.
func (p Profile) Len() int {
	return len(p.order)
}

// Fields returns the field names in insertion order.
func (p Profile) Fields() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Map returns a copy of the fields as a plain map.
func (p Profile) Map() map[string]string {
	m := make(map[string]string, len(p.values))
	for k, v := range p.values {
		m[k] = v
	}
	return m
}

// Clone returns a deep copy so that mutations to one never leak into the other.
func (p Profile) Clone() Profile {
	cp := Profile{
		order:  make([]string, len(p.order)),
		values: make(map[string]string, len(p.values)),
	}
	copy(cp.order, p.order)
	for k, v := range p.values {
		cp.values[k] = v
	}
	return cp
}

// MarshalJSON encodes the profile as a flat JSON object in insertion order.
func (p Profile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object of string values, keeping the
// document's key order.
func (p *Profile) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("profile must be a JSON object")
	}

	out := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = out
	return nil
}
