package ktopic

// Broker is an opaque, comparable handle to a broker node, as resolved by
// a BrokerDirectory. This core never dials, reads, or writes a broker
// connection; it only stores and compares these handles to decide whether
// a partition's leader changed.
type Broker interface {
	NodeID() int32
}

// BrokerDirectory resolves a broker node id to a live Broker handle. It is
// the external collaborator standing in for the connection pool: all
// lookups by id must happen under the client's lock, before any topic lock
// is taken (§5 lock order).
type BrokerDirectory interface {
	FindByNodeID(id int32) (Broker, bool)
}

// simpleBroker is a trivial Broker usable in tests and examples.
type simpleBroker struct {
	id int32
}

// NewBroker returns a Broker handle for the given node id, suitable for
// tests, examples, and any BrokerDirectory implementation that doesn't
// need a richer handle.
func NewBroker(id int32) Broker { return simpleBroker{id: id} }

func (b simpleBroker) NodeID() int32 { return b.id }

// StaticBrokerDirectory is a BrokerDirectory backed by a fixed map, useful
// for tests and for embedding applications that resolve their broker pool
// once at startup.
type StaticBrokerDirectory map[int32]Broker

func (d StaticBrokerDirectory) FindByNodeID(id int32) (Broker, bool) {
	b, ok := d[id]
	return b, ok
}
