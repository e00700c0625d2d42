package match

import (
	"fmt"
	"strings"
)

// Team is an immutable, identity-free team value. Two teams are equal iff
// their name and code are equal, so Team can be compared with ==.
type Team struct {
	name string
	code string
}

// NewTeam trims name and code and upper-cases the code.
func NewTeam(name, code string) (Team, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" {
		return Team{}, fmt.Errorf("%w: team name must not be empty", ErrInvalidArgument)
	}
	if code == "" {
		return Team{}, fmt.Errorf("%w: team code must not be empty", ErrInvalidArgument)
	}
	return Team{name: name, code: strings.ToUpper(code)}, nil
}

func (t Team) Name() string { return t.name }
func (t Team) Code() string { return t.code }

// IsZero reports whether t was not built by NewTeam.
func (t Team) IsZero() bool { return t == Team{} }

func (t Team) String() string {
	return t.name + " (" + t.code + ")"
}
