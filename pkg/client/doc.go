// Package client is a typed Go client for the SmartHouse Core HTTP API.
//
// Every endpoint has one method. Calls take a context and return decoded
// values; any non-2xx answer is returned as *APIError carrying the status
// code and the server's plain-text body.
//
//	c := client.New("http://127.0.0.1:8080", client.WithTimeout(5*time.Second))
//	ids, err := c.DeviceIDs(ctx)
//	if client.IsNotFound(err) {
//	    ...
//	}
package client
