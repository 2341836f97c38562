package grpc_test

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	contactsgrpc "github.com/vibast-solutions/ms-go-contacts/app/grpc"
	"github.com/vibast-solutions/ms-go-contacts/app/index"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type digitsOnly struct{}

func (digitsOnly) Normalize(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return "+" + b.String(), true
}

func newContactServer() (*index.ContactIndex, *contactsgrpc.ContactServer) {
	idx := index.NewWithShards(digitsOnly{}, 4)
	ingestion := service.NewIngestionService(idx, nil, nil)
	validation := service.NewValidationService(service.NewCompletenessChecker(), service.NewUniquenessChecker(idx), nil)
	return idx, contactsgrpc.NewContactServer(validation, ingestion, ingestion)
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("failed to build struct: %v", err)
	}
	return s
}

func violationsOf(res *structpb.Struct) []string {
	var out []string
	for _, v := range res.GetFields()["violations"].GetListValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

func TestContactServer_ConsumeThenValidate(t *testing.T) {
	_, srv := newContactServer()
	ctx := context.Background()

	res, err := srv.Consume(ctx, mustStruct(t, map[string]any{
		"profiles": []any{
			map[string]any{"user_id": "uuid1", "mobile": "1234", "email": "foo1@bar"},
			map[string]any{"user_id": "uuid2", "mobile": "1233", "email": "foo@bar"},
		},
	}))
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if got := res.GetFields()["accepted"].GetNumberValue(); got != 2 {
		t.Fatalf("expected 2 accepted, got %v", got)
	}

	res, err = srv.Validate(ctx, mustStruct(t, map[string]any{
		"user_id": "uuid7", "mobile": "1234", "email": "FOO@bar",
	}))
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	got := violationsOf(res)
	want := []string{string(entity.ViolationNonUniqueEmail), string(entity.ViolationNonUniqueMobile)}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if res.GetFields()["valid"].GetBoolValue() {
		t.Fatalf("expected valid=false")
	}
}

func TestContactServer_RemoveAndReset(t *testing.T) {
	idx, srv := newContactServer()
	ctx := context.Background()

	if _, err := srv.Consume(ctx, mustStruct(t, map[string]any{
		"profile": map[string]any{"user_id": "u1", "email": "a@b"},
	})); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	res, err := srv.Remove(ctx, mustStruct(t, map[string]any{"user_id": "u1"}))
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if got := res.GetFields()["email"].GetStringValue(); got != "released" {
		t.Fatalf("expected released, got %q", got)
	}

	srv.Consume(ctx, mustStruct(t, map[string]any{"profile": map[string]any{"user_id": "u2", "email": "c@d"}}))
	if _, err := srv.Reset(ctx, &structpb.Struct{}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if idx.Stats() != (index.Stats{}) {
		t.Fatalf("expected empty index after reset")
	}
}

func TestContactServer_InvalidArguments(t *testing.T) {
	_, srv := newContactServer()
	ctx := context.Background()

	if _, err := srv.Validate(ctx, mustStruct(t, map[string]any{"email": "a@b"})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument for missing user_id, got %v", err)
	}
	if _, err := srv.Consume(ctx, mustStruct(t, map[string]any{})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument for empty consume, got %v", err)
	}
	if _, err := srv.Remove(ctx, mustStruct(t, map[string]any{"user_id": 12})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument for numeric user_id, got %v", err)
	}
}

func TestContactService_OverTheWire(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	keys := newKeyAuthenticator(t, "secret")
	server := grpc.NewServer(grpc.UnaryInterceptor(contactsgrpc.APIKeyUnaryInterceptor(keys)))
	_, srv := newContactServer()
	contactsgrpc.RegisterContactServiceServer(server, srv)

	go func() { _ = server.Serve(lis) }()
	defer server.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	client := contactsgrpc.NewContactServiceClient(conn)
	req := mustStruct(t, map[string]any{"user_id": "u1", "email": "a@b"})

	if _, err := client.Validate(context.Background(), req); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated without key, got %v", err)
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-key", "secret")
	res, err := client.Validate(ctx, req)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !res.GetFields()["valid"].GetBoolValue() {
		t.Fatalf("expected valid profile, got %v", res)
	}
}
