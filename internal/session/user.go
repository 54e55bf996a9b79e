package session

import (
	"encoding/json"
	"strconv"
	"strings"
)

// User is the identity record returned by the gateway. Fields other than
// the well-known ones are kept in Extra and round-trip unchanged.
type User struct {
	ID      string
	Email   string
	Name    string
	Picture string
	Extra   map[string]interface{}
}

var knownUserKeys = map[string]struct{}{
	"id": {}, "email": {}, "name": {}, "picture": {},
}

// MarshalJSON flattens Extra next to the well-known fields.
func (u User) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(u.Extra)+4)
	for k, v := range u.Extra {
		m[k] = v
	}
	m["id"] = u.ID
	m["email"] = u.Email
	if u.Name != "" {
		m["name"] = u.Name
	}
	if u.Picture != "" {
		m["picture"] = u.Picture
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts any JSON object.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = userFromMap(raw)
	return nil
}

func userFromMap(raw map[string]interface{}) User {
	u := User{
		ID:      scalarString(raw["id"]),
		Email:   scalarString(raw["email"]),
		Name:    scalarString(raw["name"]),
		Picture: scalarString(raw["picture"]),
	}
	for k, v := range raw {
		if _, ok := knownUserKeys[k]; ok {
			continue
		}
		if u.Extra == nil {
			u.Extra = make(map[string]interface{})
		}
		u.Extra[k] = v
	}
	return u
}

// scalarString tolerates numeric IDs.
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// DisplayName returns the name, else the local part of the email, else "User".
func (u *User) DisplayName() string {
	if u == nil {
		return "User"
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return strings.SplitN(u.Email, "@", 2)[0]
	}
	return "User"
}

// Clone returns a copy that shares no maps with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Extra != nil {
		c.Extra = make(map[string]interface{}, len(u.Extra))
		for k, v := range u.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// UserUpdate is a partial user record. Nil fields are left unchanged;
// Extra keys are merged over the existing ones. An Extra key naming a
// well-known field sets that field, and the typed pointers win over it.
type UserUpdate struct {
	Name    *string
	Email   *string
	Picture *string
	Extra   map[string]interface{}
}

func (u *User) apply(up UserUpdate) {
	for k, v := range up.Extra {
		if u.setKnown(k, v) {
			continue
		}
		if u.Extra == nil {
			u.Extra = make(map[string]interface{}, len(up.Extra))
		}
		u.Extra[k] = v
	}
	if up.Name != nil {
		u.Name = *up.Name
	}
	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.Picture != nil {
		u.Picture = *up.Picture
	}
}

// setKnown assigns a well-known field and reports whether key was one.
func (u *User) setKnown(key string, v interface{}) bool {
	switch key {
	case "id":
		u.ID = scalarString(v)
	case "email":
		u.Email = scalarString(v)
	case "name":
		u.Name = scalarString(v)
	case "picture":
		u.Picture = scalarString(v)
	default:
		return false
	}
	return true
}

// decodeUser reads a user from a login or /me body. The user may be nested
// under "user" or sit at the top level. A body that is not a JSON object
// yields nil rather than an error.
func decodeUser(body []byte) *User {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		return nil
	}
	if nested, ok := data["user"].(map[string]interface{}); ok {
		u := userFromMap(nested)
		return &u
	}
	u := userFromMap(data)
	return &u
}
