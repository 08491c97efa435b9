package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"
)

// NodeMeta describes a running modem interface node.
type NodeMeta struct {
	Description string   `json:"description,omitempty"`
	Links       []string `json:"links,omitempty"`
	Channels    []uint8  `json:"channels,omitempty"`
}

// NodeInfo is a discovered node.
type NodeInfo struct {
	Node string
	Meta NodeMeta
}

// Announcer keeps a retained meta message for the node while running.
// The broker clears it through the will if the node disappears.
type Announcer struct {
	Queue *Queue
	Node  string

	metaJSON []byte
}

// NewAnnouncer creates an Announcer with its own connection.
func NewAnnouncer(brokerURL, node string, meta NodeMeta) (*Announcer, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := node + "/" + TopicMeta
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("mif:" + node)
	}
	a := &Announcer{
		Queue:    NewQueue(opts, topicPrefix),
		Node:     node,
		metaJSON: metaJSON,
	}
	a.Queue.OnConnect = func(q *Queue) { q.PubWith(metaTopic, a.metaJSON, 1, true) }
	return a, nil
}

// Run implements Runnable.
func (a *Announcer) Run(ctx context.Context) error {
	if err := a.Queue.Connect(); err != nil {
		return err
	}
	<-ctx.Done()
	a.Queue.PubWith(a.Node+"/"+TopicMeta, nil, 1, true).WaitTimeout(time.Second)
	return a.Queue.Close()
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Discover lists nodes with a retained meta message.
func Discover(ctx context.Context, q *Queue, timeout time.Duration) ([]NodeInfo, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	resCh := make(chan NodeInfo, 16)
	sub := q.Sub("+/"+TopicMeta, func(topic string, payload []byte) {
		items := strings.Split(topic, "/")
		if len(items) != 2 || len(payload) == 0 {
			return
		}
		info := NodeInfo{Node: items[0]}
		if err := json.Unmarshal(payload, &info.Meta); err != nil {
			glog.Warningf("%s: bad meta: %v", topic, err)
			return
		}
		select {
		case resCh <- info:
		case <-time.After(timeout):
		}
	})
	defer sub.Close()

	var res []NodeInfo
	deadline := time.After(timeout)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-deadline:
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}
