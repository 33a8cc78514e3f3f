package streamsvc

import (
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/id"
)

func entry(ms, seq uint64) store.Entry {
	return store.Entry{ID: id.ID{Ms: ms, Seq: seq}, Fields: map[string]string{}}
}
