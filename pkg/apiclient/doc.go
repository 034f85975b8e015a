// Package apiclient builds HTTP requests from endpoint descriptors, executes
// them once over a transport and decodes successful bodies into typed values.
//
// A call ends in exactly one of a value or an *Error:
//
//	type todo struct {
//		ID    int    `json:"id"`
//		Title string `json:"title"`
//	}
//
//	c := apiclient.New(nil)
//	t, err := apiclient.Do[todo](ctx, c, apiclient.Endpoint{
//		Method:  apiclient.MethodGet,
//		BaseURL: "https://jsonplaceholder.typicode.com",
//		Path:    "/todos/1",
//	})
//	if errors.Is(err, apiclient.ErrBadStatus) {
//		// inspect err.(*apiclient.Error).StatusCode and Body
//	}
//
// Network[T] is the descriptor form that carries its own decoder.
package apiclient
