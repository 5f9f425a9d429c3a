package rtdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite

	Server *miniredis.Miniredis
	Redis  *redis.Client
	Client *Client
}

func (s *ClientTestSuite) SetupTest() {
	s.Server = miniredis.RunT(s.T())
	s.Server.SetTime(time.UnixMilli(1_700_000_000_000))

	s.Redis = redis.NewClient(&redis.Options{Addr: s.Server.Addr()})
	s.Client = New(s.Redis, Options{Prefix: "test"})
}

func (s *ClientTestSuite) TearDownTest() {
	s.Require().NoError(s.Redis.Close())
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) TestSetAndGet() {
	ctx := context.Background()

	err := s.Client.Set(ctx, "booths/CR1/slots", map[string]any{"10:00": 5, "11:00": 0})
	s.Require().NoError(err)

	snap, err := s.Client.Get(ctx, "booths/CR1/slots/10:00")
	s.Require().NoError(err)
	s.True(snap.Exists())
	s.Equal(int64(5), snap.Int())
	s.Equal("10:00", snap.Key())

	snap, err = s.Client.Get(ctx, "booths/CR1/slots")
	s.Require().NoError(err)
	children := snap.Children()
	s.Require().Len(children, 2)
	s.Equal("10:00", children[0].Key())
	s.Equal("11:00", children[1].Key())

	missing, err := s.Client.Get(ctx, "booths/CR2/slots")
	s.Require().NoError(err)
	s.False(missing.Exists())
}

func (s *ClientTestSuite) TestSetNilRemovesAndPrunes() {
	ctx := context.Background()

	s.Require().NoError(s.Client.Set(ctx, "booths/CR1/queue", map[string]any{
		"current_call": 2,
		"last_number":  3,
		"waiting_list": map[string]any{"a": map[string]any{"number": 1}},
	}))

	s.Require().NoError(s.Client.Set(ctx, "booths/CR1/queue", map[string]any{
		"current_call": 0,
		"last_number":  0,
		"waiting_list": nil,
	}))

	list, err := s.Client.Get(ctx, "booths/CR1/queue/waiting_list")
	s.Require().NoError(err)
	s.False(list.Exists())
	s.False(s.Server.Exists("test:doc:booths/CR1/queue/waiting_list/a"))
	s.False(s.Server.Exists("test:index:booths/CR1/queue/waiting_list"))

	queue, err := s.Client.Get(ctx, "booths/CR1/queue")
	s.Require().NoError(err)
	s.Equal(map[string]any{"current_call": float64(0), "last_number": float64(0)}, queue.Value())

	s.Require().NoError(s.Client.Set(ctx, "booths/CR1", nil))
	s.Empty(s.Server.Keys())
}

func (s *ClientTestSuite) TestUpdateMergesFields() {
	ctx := context.Background()

	s.Require().NoError(s.Client.Set(ctx, "reservations/r1", map[string]any{"name": "Lee", "status": "예약 완료"}))

	err := s.Client.Update(ctx, "reservations/r1", map[string]any{
		"requestEmail":     true,
		"requestTimestamp": ServerTimestamp,
	})
	s.Require().NoError(err)

	var got struct {
		Name             string `json:"name"`
		Status           string `json:"status"`
		RequestEmail     bool   `json:"requestEmail"`
		RequestTimestamp int64  `json:"requestTimestamp"`
	}

	snap, err := s.Client.Get(ctx, "reservations/r1")
	s.Require().NoError(err)
	s.Require().NoError(snap.Decode(&got))
	s.Equal("Lee", got.Name)
	s.Equal("예약 완료", got.Status)
	s.True(got.RequestEmail)
	s.Equal(int64(1_700_000_000_000), got.RequestTimestamp)
}

func (s *ClientTestSuite) TestPushKeysAreOrdered() {
	ctx := context.Background()

	first, err := s.Client.Push(ctx, "booths/CR1/queue/waiting_list", map[string]any{"number": 1})
	s.Require().NoError(err)
	second, err := s.Client.Push(ctx, "booths/CR1/queue/waiting_list", map[string]any{"number": 2})
	s.Require().NoError(err)

	s.Less(first, second)

	snap, err := s.Client.Get(ctx, "booths/CR1/queue/waiting_list")
	s.Require().NoError(err)
	children := snap.Children()
	s.Require().Len(children, 2)
	s.Equal(first, children[0].Key())
}

func (s *ClientTestSuite) TestTransactionAbort() {
	ctx := context.Background()

	res, err := s.Client.Transaction(ctx, "booths/CR1/queue/waiting_list/missing", func(current any) (any, bool) {
		if current == nil {
			return nil, true
		}
		return current, false
	})
	s.Require().NoError(err)
	s.False(res.Committed)
	s.False(res.Snapshot.Exists())
	s.Empty(s.Server.Keys())
}

func (s *ClientTestSuite) TestTransactionConcurrentIncrements() {
	ctx := context.Background()
	const callers = 30

	var wg sync.WaitGroup
	errCh := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Client.Transaction(ctx, "booths/CR1/queue/current_call", func(current any) (any, bool) {
				return Int(current) + 1, false
			})
			errCh <- err
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		s.Require().NoError(err)
	}

	snap, err := s.Client.Get(ctx, "booths/CR1/queue/current_call")
	s.Require().NoError(err)
	s.Equal(int64(callers), snap.Int())
}

func (s *ClientTestSuite) TestTransactionRetriesExhausted() {
	ctx := context.Background()
	client := New(s.Redis, Options{Prefix: "test", MaxRetries: 3})

	other := redis.NewClient(&redis.Options{Addr: s.Server.Addr()})
	defer other.Close()

	attempts := 0
	_, err := client.Transaction(ctx, "booths/CR1/queue/current_call", func(current any) (any, bool) {
		attempts++
		// A concurrent writer touches the document before every commit.
		s.Require().NoError(other.Set(ctx, "test:doc:booths/CR1/queue/current_call", "1", 0).Err())
		return Int(current) + 1, false
	})

	s.ErrorIs(err, ErrMaxRetries)
	s.Equal(3, attempts)
}

func (s *ClientTestSuite) TestEachDocumentHasItsOwnKey() {
	ctx := context.Background()

	s.Require().NoError(s.Client.Set(ctx, "booths/CR1", map[string]any{
		"name":  "Coffee",
		"slots": map[string]any{"10:00": 5},
		"queue": map[string]any{
			"current_call": 1,
			"last_number":  2,
			"waiting_list": map[string]any{
				"a": map[string]any{"number": 1},
				"b": map[string]any{"number": 2},
			},
		},
	}))

	for _, key := range []string{
		"test:doc:booths/CR1/slots",
		"test:doc:booths/CR1/queue/current_call",
		"test:doc:booths/CR1/queue/last_number",
		"test:doc:booths/CR1/queue/waiting_list/a",
		"test:doc:booths/CR1/queue/waiting_list/b",
		"test:fields:booths/CR1",
	} {
		s.True(s.Server.Exists(key), key)
	}

	members, err := s.Server.Members("test:index:booths/CR1/queue/waiting_list")
	s.Require().NoError(err)
	s.Equal([]string{"a", "b"}, members)

	booths, err := s.Client.Get(ctx, "booths")
	s.Require().NoError(err)
	s.Equal(map[string]any{
		"CR1": map[string]any{
			"name":  "Coffee",
			"slots": map[string]any{"10:00": float64(5)},
			"queue": map[string]any{
				"current_call": float64(1),
				"last_number":  float64(2),
				"waiting_list": map[string]any{
					"a": map[string]any{"number": float64(1)},
					"b": map[string]any{"number": float64(2)},
				},
			},
		},
	}, booths.Value())

	s.Require().NoError(s.Client.Set(ctx, "booths/CR1/queue/waiting_list", map[string]any{
		"b": map[string]any{"number": 2},
	}))
	s.False(s.Server.Exists("test:doc:booths/CR1/queue/waiting_list/a"))

	members, err = s.Server.Members("test:index:booths/CR1/queue/waiting_list")
	s.Require().NoError(err)
	s.Equal([]string{"b"}, members)
}

func (s *ClientTestSuite) TestUpdateAcrossDocuments() {
	ctx := context.Background()

	s.Require().NoError(s.Client.Set(ctx, "booths/CR1/queue/last_number", 7))

	err := s.Client.Update(ctx, "booths/CR1/queue", map[string]any{
		"current_call":   3,
		"waiting_list/x": map[string]any{"number": 7},
	})
	s.Require().NoError(err)

	queue, err := s.Client.Get(ctx, "booths/CR1/queue")
	s.Require().NoError(err)
	s.Equal(map[string]any{
		"current_call": float64(3),
		"last_number":  float64(7),
		"waiting_list": map[string]any{"x": map[string]any{"number": float64(7)}},
	}, queue.Value())
}

func (s *ClientTestSuite) TestInnerNodeRejectsLeaf() {
	err := s.Client.Set(context.Background(), "booths/CR1", 5)
	s.ErrorIs(err, ErrInvalidPath)
	s.Empty(s.Server.Keys())
}

// Counters of one booth and the documents of another booth are separate keys,
// so every writer commits within the default retry budget even across
// clients that do not share an in-process lock.
func (s *ClientTestSuite) TestConcurrentWritersAcrossDocuments() {
	ctx := context.Background()
	other := New(s.Redis, Options{Prefix: "test"})

	const callers = 20

	var wg sync.WaitGroup
	errCh := make(chan error, callers*4)

	for i := 0; i < callers; i++ {
		for _, client := range []*Client{s.Client, other} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := client.Transaction(ctx, "booths/CR1/queue/current_call", func(current any) (any, bool) {
					return Int(current) + 1, false
				})
				errCh <- err
			}()
		}

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Client.Push(ctx, "booths/CR1/queue/waiting_list", map[string]any{"number": 1})
			errCh <- err
		}()
		go func() {
			defer wg.Done()
			_, err := other.Transaction(ctx, "booths/CR2/queue/last_number", func(current any) (any, bool) {
				return Int(current) + 1, false
			})
			errCh <- err
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		s.Require().NoError(err)
	}

	called, err := s.Client.Get(ctx, "booths/CR1/queue/current_call")
	s.Require().NoError(err)
	s.Equal(int64(2*callers), called.Int())

	list, err := s.Client.Get(ctx, "booths/CR1/queue/waiting_list")
	s.Require().NoError(err)
	s.Len(list.Children(), callers)

	last, err := s.Client.Get(ctx, "booths/CR2/queue/last_number")
	s.Require().NoError(err)
	s.Equal(int64(callers), last.Int())
}

func (s *ClientTestSuite) TestSubscribe() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := s.Client.Subscribe(ctx, "booths/CR1/queue/current_call")
	s.Require().NoError(err)

	first := s.receive(updates)
	s.False(first.Exists())

	s.Require().NoError(s.Client.Set(ctx, "booths/CR1/slots", map[string]any{"10:00": 1}))
	s.Require().NoError(s.Client.Set(ctx, "booths/CR1/queue/current_call", 4))

	next := s.receive(updates)
	s.Equal(int64(4), next.Int())

	cancel()
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-time.After(2 * time.Second):
			s.FailNow("subscription not closed after cancel")
		}
	}
}

func (s *ClientTestSuite) receive(ch <-chan Snapshot) Snapshot {
	select {
	case snap, ok := <-ch:
		s.Require().True(ok, "subscription closed")
		return snap
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestInvalidPath(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	client := New(rdb, Options{})

	for _, path := range []string{"", "/", "booths/a.b", "booths/$key"} {
		_, err := client.Get(context.Background(), path)
		if !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Get(%q) error = %v, want ErrInvalidPath", path, err)
		}
	}
}

func TestGetAssemblesFromIndex(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := New(rdb, Options{Prefix: "rtdb"})

	mock.ExpectSMembers("rtdb:index:booths/CR1/queue/waiting_list").SetVal([]string{"A"})
	mock.ExpectMGet("rtdb:doc:booths/CR1/queue/waiting_list/A").SetVal([]any{`{"number":1}`})

	snap, err := client.Get(context.Background(), "booths/CR1/queue/waiting_list")
	if err != nil {
		t.Fatal(err)
	}

	children := snap.Children()
	if len(children) != 1 || children[0].Key() != "A" || Int(Map(children[0].Value())["number"]) != 1 {
		t.Fatalf("children = %+v", children)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetRedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := New(rdb, Options{Prefix: "rtdb"})

	mock.ExpectGet("rtdb:doc:booths/CR1/queue/current_call").SetErr(redis.ErrClosed)

	_, err := client.Get(context.Background(), "booths/CR1/queue/current_call")
	if !errors.Is(err, redis.ErrClosed) {
		t.Fatalf("Get error = %v, want redis.ErrClosed", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
