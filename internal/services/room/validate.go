package room

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/services/auth"
)

var roomNamePattern = regexp.MustCompile(`^[a-zA-Z ]+$`)

// ValidateRoomName accepts letters and spaces only, up to MaxRoomNameLength
func ValidateRoomName(name string) error {
	if len(name) > model.MaxRoomNameLength || !roomNamePattern.MatchString(name) {
		return model.ErrInvalidRoomName
	}
	if strings.TrimSpace(name) == "" {
		return model.ErrInvalidRoomName
	}
	return nil
}

// ValidateMessage rejects blank messages and messages over MaxMessageLength runes
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return model.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > model.MaxMessageLength {
		return model.ErrMessageTooLong
	}
	return nil
}

func checkPassword(room *model.Room, password string) error {
	if !room.HasPassword() {
		return nil
	}
	if !auth.CheckPassword(room.PasswordHash, password) {
		return model.ErrInvalidPassword
	}
	return nil
}
