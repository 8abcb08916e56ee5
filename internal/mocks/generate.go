package mocks

// Mock generation directives. Run `go generate ./internal/mocks/` to regenerate.

//go:generate go run go.uber.org/mock/mockgen -source=../commonground/client.go -destination=mock_commonground.go -package=mocks
//go:generate go run go.uber.org/mock/mockgen -source=../kvk/client.go -destination=mock_kvk.go -package=mocks
