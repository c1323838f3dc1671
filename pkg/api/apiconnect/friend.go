package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// FriendServiceName is the fully-qualified name of the service.
const FriendServiceName = "splitledger.v1.FriendService"

// Procedure paths of FriendService.
const (
	FriendServiceAddFriendProcedure         = "/splitledger.v1.FriendService/AddFriend"
	FriendServiceListFriendsProcedure       = "/splitledger.v1.FriendService/ListFriends"
	FriendServiceGetFriendBalancesProcedure = "/splitledger.v1.FriendService/GetFriendBalances"
)

// FriendServiceHandler is the server side of FriendService, which manages friendships and cross-group balances.
type FriendServiceHandler interface {
	AddFriend(context.Context, *connect.Request[api.AddFriendRequest]) (*connect.Response[api.AddFriendResponse], error)
	ListFriends(context.Context, *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error)
	GetFriendBalances(context.Context, *connect.Request[api.GetFriendBalancesRequest]) (*connect.Response[api.GetFriendBalancesResponse], error)
}

// NewFriendServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewFriendServiceHandler(svc FriendServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + FriendServiceName + "/", route(map[string]http.Handler{
		FriendServiceAddFriendProcedure:         connect.NewUnaryHandler(FriendServiceAddFriendProcedure, svc.AddFriend, opts...),
		FriendServiceListFriendsProcedure:       connect.NewUnaryHandler(FriendServiceListFriendsProcedure, svc.ListFriends, opts...),
		FriendServiceGetFriendBalancesProcedure: connect.NewUnaryHandler(FriendServiceGetFriendBalancesProcedure, svc.GetFriendBalances, opts...),
	})
}

// FriendServiceClient is a client for FriendService.
type FriendServiceClient interface {
	AddFriend(context.Context, *connect.Request[api.AddFriendRequest]) (*connect.Response[api.AddFriendResponse], error)
	ListFriends(context.Context, *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error)
	GetFriendBalances(context.Context, *connect.Request[api.GetFriendBalancesRequest]) (*connect.Response[api.GetFriendBalancesResponse], error)
}

type friendServiceClient struct {
	addFriend         *connect.Client[api.AddFriendRequest, api.AddFriendResponse]
	listFriends       *connect.Client[api.ListFriendsRequest, api.ListFriendsResponse]
	getFriendBalances *connect.Client[api.GetFriendBalancesRequest, api.GetFriendBalancesResponse]
}

// NewFriendServiceClient constructs a client for the service at baseURL.
func NewFriendServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) FriendServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &friendServiceClient{
		addFriend:         connect.NewClient[api.AddFriendRequest, api.AddFriendResponse](httpClient, baseURL+FriendServiceAddFriendProcedure, opts...),
		listFriends:       connect.NewClient[api.ListFriendsRequest, api.ListFriendsResponse](httpClient, baseURL+FriendServiceListFriendsProcedure, opts...),
		getFriendBalances: connect.NewClient[api.GetFriendBalancesRequest, api.GetFriendBalancesResponse](httpClient, baseURL+FriendServiceGetFriendBalancesProcedure, opts...),
	}
}

func (c *friendServiceClient) AddFriend(ctx context.Context, req *connect.Request[api.AddFriendRequest]) (*connect.Response[api.AddFriendResponse], error) {
	return c.addFriend.CallUnary(ctx, req)
}

func (c *friendServiceClient) ListFriends(ctx context.Context, req *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error) {
	return c.listFriends.CallUnary(ctx, req)
}

func (c *friendServiceClient) GetFriendBalances(ctx context.Context, req *connect.Request[api.GetFriendBalancesRequest]) (*connect.Response[api.GetFriendBalancesResponse], error) {
	return c.getFriendBalances.CallUnary(ctx, req)
}
