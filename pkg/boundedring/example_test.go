package boundedring_test

import (
	"fmt"

	"github.com/i5heu/GoRingBuffer/pkg/boundedring"
)

func Example() {
	q := boundedring.MustNew[byte](4)

	fmt.Println(q.Enqueue([]byte("abcd")))
	fmt.Println(q.Enqueue([]byte("e")))

	buf := make([]byte, 8)
	n := q.Dequeue(buf)
	fmt.Println(n, string(buf[:n]))

	// Output:
	// 3
	// 0
	// 3 abc
}
