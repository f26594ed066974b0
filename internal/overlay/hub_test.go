package overlay

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetstream.tv/raffle-service/internal/metrics"
)

// Один экземпляр на пакет: promauto регистрирует коллекторы глобально.
var testMetrics = metrics.New("overlay_test")

func newTestHub() *Hub {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHub(log, testMetrics)
}

// Клиент без соединения: Broadcast и remove к conn не обращаются.
func newStuckClient() *client {
	return &client{send: make(chan []byte), done: make(chan struct{})}
}

// Параллельные Broadcast по комнате из «зависших» клиентов (небуферизованный
// send, никто не читает). Каждый вызов упирается в полный буфер и отключает
// клиентов; гонка отключения с параллельной отправкой не должна ронять хаб.
func TestBroadcastConcurrentSlowClients(t *testing.T) {
	h := newTestHub()
	const raffleID = int64(7)

	for i := 0; i < 200; i++ {
		h.add(raffleID, newStuckClient())
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h.Broadcast(raffleID, "entries_updated", i)
			}
		}()
	}
	wg.Wait()

	// все зависшие клиенты отключены, комната расформирована
	h.mu.RLock()
	_, ok := h.rooms[raffleID]
	h.mu.RUnlock()
	assert.False(t, ok, "комната должна опустеть после отключения клиентов")
}

func TestRemoveIsIdempotent(t *testing.T) {
	h := newTestHub()
	cl := newStuckClient()
	h.add(5, cl)

	h.remove(5, cl)
	h.remove(5, cl)

	select {
	case <-cl.done:
	default:
		t.Fatal("done должен быть закрыт после remove")
	}
}

func TestBroadcastDeliversToReadyClient(t *testing.T) {
	h := newTestHub()
	cl := &client{send: make(chan []byte, 1), done: make(chan struct{})}
	h.add(9, cl)

	h.Broadcast(9, "draw_completed", map[string]int{"winners": 2})

	select {
	case data := <-cl.send:
		require.Contains(t, string(data), `"event":"draw_completed"`)
		require.Contains(t, string(data), `"raffleId":9`)
	default:
		t.Fatal("клиент со свободным буфером должен получить событие")
	}

	h.remove(9, cl)
}
