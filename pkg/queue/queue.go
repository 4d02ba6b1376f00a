package queue

// Queue is the mailbox used to hand items to a single consumer.
type Queue interface {
	Enqueue(item interface{}) error
	ReadAllMessages() ([]interface{}, error)
	Size() int
	ClearQueue()
}
