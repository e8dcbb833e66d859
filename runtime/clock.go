package runtime

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/MixinNetwork/mixin/logger"
)

const clockLastTickKey = "RUNTIME:CLOCK:LAST"

// Clock hands out strictly increasing times and persists the last one, so
// timestamps keep growing across restarts even if the wall clock is behind.
type Clock struct {
	sync.Mutex
	store Store
	last  time.Time
}

func NewClock(store Store) (*Clock, error) {
	val, err := store.ReadProperty([]byte(clockLastTickKey))
	if err != nil {
		return nil, err
	}
	c := &Clock{store: store}
	if len(val) == 8 {
		c.last = time.Unix(0, int64(binary.BigEndian.Uint64(val)))
	}
	return c, nil
}

func (c *Clock) Now() time.Time {
	c.Lock()
	defer c.Unlock()

	next := time.Now()
	if !next.After(c.last) {
		next = c.last.Add(time.Microsecond)
	}
	c.last = next

	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, uint64(next.UnixNano()))
	for err := c.store.WriteProperty([]byte(clockLastTickKey), val); err != nil; {
		logger.Printf("Clock.Persist(%s) => %v\n", next, err)
		time.Sleep(100 * time.Millisecond)
		err = c.store.WriteProperty([]byte(clockLastTickKey), val)
	}
	return next
}
