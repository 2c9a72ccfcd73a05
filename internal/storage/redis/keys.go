package redis

import (
	"github.com/mcoot/farklegame/internal/model"
)

// keyspace builds the keys under one prefix
type keyspace string

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return keyspace(prefix)
}

// room holds the JSON room document
func (k keyspace) room(id model.RoomID) string {
	return string(k) + ":room:" + string(id)
}

// roomName maps a room name to its ID; SETNX on it enforces unique names
func (k keyspace) roomName(name string) string {
	return string(k) + ":idx:room_name:" + name
}

func (k keyspace) profile(id model.PlayerID) string {
	return string(k) + ":profile:" + string(id)
}
