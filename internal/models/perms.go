package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PermLevel is a guild member's permission tier.
type PermLevel int16

const (
	PermNone  PermLevel = 0
	PermUser  PermLevel = 1
	PermDJ    PermLevel = 2
	PermAdmin PermLevel = 3
)

// MustPermLevel decodes a stored tier.
//
// Values outside 0-3 mean the store holds data no version of this program wrote; it panics rather than clamping.
func MustPermLevel(v int16) PermLevel {
	if v < int16(PermNone) || v > int16(PermAdmin) {
		panic(fmt.Sprintf("perm level can only be 0-3, got %d", v))
	}
	return PermLevel(v)
}

// ParsePermLevel parses user input such as "dj", "Admin" or "2".
func ParsePermLevel(s string) (PermLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "none":
		return PermNone, nil
	case "user":
		return PermUser, nil
	case "dj":
		return PermDJ, nil
	case "admin":
		return PermAdmin, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < int(PermNone) || n > int(PermAdmin) {
		return PermNone, fmt.Errorf("invalid permission level %q: expected none, user, dj, admin or 0-3", s)
	}
	return PermLevel(n), nil
}

func (p PermLevel) String() string {
	switch p {
	case PermNone:
		return "none"
	case PermUser:
		return "user"
	case PermDJ:
		return "dj"
	case PermAdmin:
		return "admin"
	default:
		return fmt.Sprintf("PermLevel(%d)", int16(p))
	}
}

// Allows reports whether p meets the required tier.
func (p PermLevel) Allows(required PermLevel) bool {
	return p >= required
}

// Permission is one row of the permission-tier store.
type Permission struct {
	GuildID   int64
	UserID    int64
	Level     PermLevel
	CreatedAt time.Time
	UpdatedAt time.Time
}
