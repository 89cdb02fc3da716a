package db

type WriteTask struct {
	Key   []byte
	Value []byte
	Op    WriteOp // Set 或 Delete
}

type WriteOp int

const (
	OpSet WriteOp = iota
	OpDelete
)

func SetTask(key string, value []byte) WriteTask {
	return WriteTask{Key: []byte(key), Value: value, Op: OpSet}
}

func DelTask(key string) WriteTask {
	return WriteTask{Key: []byte(key), Op: OpDelete}
}
