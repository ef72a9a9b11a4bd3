package stacktrace

import (
	"reflect"
	"testing"
)

func TestInternalPaths(t *testing.T) {
	// Arrange
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/productivefire/server/internal/pkg/goroutine.(*Manager).recover(0xc000010000)
	/src/internal/pkg/goroutine/goroutine.go:131 +0x45
panic({0x6f2f60?, 0x7a9a30?})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/productivefire/server/internal/auth/usecase.(*Usecase).SignIn(...)
	/src/internal/auth/usecase/signin.go:40 +0x1c
`)

	// Act
	got := InternalPaths(stack)

	// Assert
	want := []string{
		"internal/pkg/goroutine/goroutine.go:131",
		"internal/auth/usecase/signin.go:40",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("InternalPaths() = %v, want %v", got, want)
	}
}
