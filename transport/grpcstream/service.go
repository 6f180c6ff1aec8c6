// ABOUTME: Hand-wired gRPC service/method descriptor for the agent stream
// ABOUTME: Matches what protoc-gen-go-grpc would emit for one bidi-streaming method

package grpcstream

import "google.golang.org/grpc"

// ServiceName and MethodName name the single bidirectional-streaming RPC
// this package wires by hand (there is no .proto/protoc-gen-go-grpc step in
// this environment; see DESIGN.md). StreamDesc and FullMethod below are
// exactly what protoc-gen-go-grpc would have emitted for a service with one
// bidi-streaming method.
const (
	ServiceName = "acs.v1.AgentCommunication"
	MethodName  = "StreamAgentMessages"
	FullMethod  = "/" + ServiceName + "/" + MethodName
)

// StreamDesc describes the single bidirectional-streaming method both the
// client and server sides use to open the stream.
var StreamDesc = grpc.StreamDesc{
	StreamName:    MethodName,
	ClientStreams: true,
	ServerStreams: true,
}
