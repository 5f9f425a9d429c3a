package vars

import (
	"booth-queue/model"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetDashboardCopies(t *testing.T) {
	defer SetDashboard(nil)

	d := &model.Dashboard{
		BoothID:     "CR1",
		CurrentCall: 3,
		Slots:       []model.SlotStatus{{TimeLabel: "10:00", Remaining: 2}},
		Waiting:     []model.WaitingRow{{Key: "a", Number: 4}},
	}
	SetDashboard(d)

	d.Slots[0].Remaining = 0
	d.Waiting[0].Number = 99
	d.CurrentCall = 10

	got := GetDashboard()
	assert.Equal(t, int64(3), got.CurrentCall)
	assert.Equal(t, 2, got.Slots[0].Remaining)
	assert.Equal(t, int64(4), got.Waiting[0].Number)
}

func TestSetDashboardNil(t *testing.T) {
	SetDashboard(&model.Dashboard{BoothID: "CR1"})
	SetDashboard(nil)
	assert.Nil(t, GetDashboard())
}

func TestDashboardConcurrentAccess(t *testing.T) {
	defer SetDashboard(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			SetDashboard(&model.Dashboard{CurrentCall: int64(n)})
		}(i)
		go func() {
			defer wg.Done()
			_ = GetDashboard()
		}()
	}
	wg.Wait()

	assert.NotNil(t, GetDashboard())
}
