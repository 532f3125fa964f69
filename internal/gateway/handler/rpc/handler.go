package rpc

import (
	"net/http"

	"connectrpc.com/connect"

	"codecraft/internal/history"
)

const RefactorServiceName = "codecraft.v1.RefactorService"

const (
	RefactorProcedure    = "/" + RefactorServiceName + "/Refactor"
	ListHistoryProcedure = "/" + RefactorServiceName + "/ListHistory"
	GetHistoryProcedure  = "/" + RefactorServiceName + "/GetHistory"
	GetArchiveProcedure  = "/" + RefactorServiceName + "/GetArchive"
	ListOptionsProcedure = "/" + RefactorServiceName + "/ListOptions"
)

// NewRefactorServiceHandler returns the path prefix and handler to mount.
func NewRefactorServiceHandler(h *RefactorHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(RefactorProcedure, connect.NewUnaryHandler(RefactorProcedure, h.Refactor, opts...))
	mux.Handle(ListHistoryProcedure, connect.NewUnaryHandler(ListHistoryProcedure, h.ListHistory, opts...))
	mux.Handle(GetHistoryProcedure, connect.NewUnaryHandler(GetHistoryProcedure, h.GetHistory, opts...))
	mux.Handle(GetArchiveProcedure, connect.NewUnaryHandler(GetArchiveProcedure, h.GetArchive, opts...))
	mux.Handle(ListOptionsProcedure, connect.NewUnaryHandler(ListOptionsProcedure, h.ListOptions, opts...))
	return "/" + RefactorServiceName + "/", mux
}

// RefactorServiceClient calls a remote RefactorService.
type RefactorServiceClient struct {
	refactor    *connect.Client[RefactorRequest, RefactorResponse]
	listHistory *connect.Client[ListHistoryRequest, ListHistoryResponse]
	getHistory  *connect.Client[GetHistoryRequest, history.Item]
	getArchive  *connect.Client[GetArchiveRequest, GetArchiveResponse]
	listOptions *connect.Client[ListOptionsRequest, ListOptionsResponse]
}

func NewRefactorServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RefactorServiceClient {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &RefactorServiceClient{
		refactor:    connect.NewClient[RefactorRequest, RefactorResponse](httpClient, baseURL+RefactorProcedure, opts...),
		listHistory: connect.NewClient[ListHistoryRequest, ListHistoryResponse](httpClient, baseURL+ListHistoryProcedure, opts...),
		getHistory:  connect.NewClient[GetHistoryRequest, history.Item](httpClient, baseURL+GetHistoryProcedure, opts...),
		getArchive:  connect.NewClient[GetArchiveRequest, GetArchiveResponse](httpClient, baseURL+GetArchiveProcedure, opts...),
		listOptions: connect.NewClient[ListOptionsRequest, ListOptionsResponse](httpClient, baseURL+ListOptionsProcedure, opts...),
	}
}
