package iodev

import (
	"sync/atomic"

	"github.com/golang/glog"
)

// TxQueue is a NetInterface for devices without a kernel network
// interface behind them. It only records the queue state.
type TxQueue struct {
	Name string

	stopped int32
	stops   uint64
}

// StopQueue implements NetInterface.
func (q *TxQueue) StopQueue() {
	if atomic.SwapInt32(&q.stopped, 1) == 0 {
		atomic.AddUint64(&q.stops, 1)
		glog.V(2).Infof("%s: queue stopped", q.Name)
	}
}

// WakeQueue implements NetInterface.
func (q *TxQueue) WakeQueue() {
	if atomic.SwapInt32(&q.stopped, 0) == 1 {
		glog.V(2).Infof("%s: queue woken", q.Name)
	}
}

// Stopped checks whether the queue is stopped.
func (q *TxQueue) Stopped() bool {
	return atomic.LoadInt32(&q.stopped) != 0
}

// Stops returns how many times the queue went from running to stopped.
func (q *TxQueue) Stops() uint64 {
	return atomic.LoadUint64(&q.stops)
}
