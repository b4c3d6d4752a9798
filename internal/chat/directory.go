package chat

import "github.com/samber/lo"

// User is a display name held by one connection within one scope.
type User struct {
	Name   string
	ConnID ConnectionID
}

func NewUser(name string, id ConnectionID) User {
	return User{Name: name, ConnID: id}
}

// Claim describes a successful name claim.
type Claim struct {
	User     User
	Previous string
}

// Renamed reports whether the claim replaced a different name held by the
// same connection.
func (c Claim) Renamed() bool {
	return c.Previous != "" && c.Previous != c.User.Name
}

// Directory is the name table of one scope, keyed by connection.
// Iteration follows the order in which connections first claimed.
type Directory struct {
	users map[ConnectionID]User
	order []ConnectionID
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[ConnectionID]User)}
}

// Claim gives name to connection id. Names are compared byte for byte.
// A name held by another connection in this directory is refused; the
// connection's own current name is not in its way.
func (d *Directory) Claim(id ConnectionID, name string) (Claim, error) {
	if name == "" {
		return Claim{}, &ClaimError{Kind: ErrEmptyName}
	}
	for _, cur := range d.order {
		if cur != id && d.users[cur].Name == name {
			return Claim{}, &ClaimError{Kind: ErrNameTaken, Name: name}
		}
	}

	prev, existed := d.users[id]
	user := NewUser(name, id)
	d.put(user)

	claim := Claim{User: user}
	if existed {
		claim.Previous = prev.Name
	}
	return claim, nil
}

// Add records u without the uniqueness check.
func (d *Directory) Add(u User) {
	d.put(u)
}

func (d *Directory) put(u User) {
	if _, ok := d.users[u.ConnID]; !ok {
		d.order = append(d.order, u.ConnID)
	}
	d.users[u.ConnID] = u
}

func (d *Directory) Lookup(id ConnectionID) (User, bool) {
	u, ok := d.users[id]
	return u, ok
}

// Remove drops the record for id, reporting whether one existed.
func (d *Directory) Remove(id ConnectionID) bool {
	if _, ok := d.users[id]; !ok {
		return false
	}
	delete(d.users, id)
	d.order = lo.Without(d.order, id)
	return true
}

func (d *Directory) Len() int {
	return len(d.users)
}

// Users returns the current records in directory order.
func (d *Directory) Users() []User {
	return lo.Map(d.order, func(id ConnectionID, _ int) User {
		return d.users[id]
	})
}

// Names returns every held display name in directory order. It is never nil.
func (d *Directory) Names() []string {
	return lo.Map(d.Users(), func(u User, _ int) string {
		return u.Name
	})
}
