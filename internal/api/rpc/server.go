package rpc

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/navicore/specsvc/internal/app"
	"github.com/navicore/specsvc/internal/domain"
)

// createSleep mirrors the source's own asymmetry: the RPC Create handler
// sleeps briefly before responding while the REST one does not. Neither
// sleep is a correctness guarantee — point reads fall back to event-store
// replay regardless — so this is kept rather than standardized away (see
// SPEC_FULL.md §9).
const createSleep = 50 * time.Millisecond

// stubPrincipalID stands in for an authenticated caller's identity.
// Authentication is an explicit non-goal; every command is attributed to
// this fixed principal until one is added.
const stubPrincipalID = "system"

// server implements the hand-rolled specService contract backing the
// ServiceDesc below.
type server struct {
	svc *app.Service
}

func cmdContext(ctx context.Context) domain.CommandContext {
	correlationID := ""
	if md, ok := metadataCorrelationID(ctx); ok {
		correlationID = md
	}
	return domain.CommandContext{PrincipalID: stubPrincipalID, CorrelationID: correlationID}
}

func (s *server) CreateSpec(ctx context.Context, req *CreateSpecRequest) (*CreateSpecResponse, error) {
	env, err := s.svc.CreateSpec(ctx, domain.CreateSpecCommand{
		Name:        req.Name,
		Content:     req.Content,
		Description: req.Description,
		Ctx:         cmdContext(ctx),
	})
	if err != nil {
		return nil, statusFor(err)
	}
	time.Sleep(createSleep)
	return &CreateSpecResponse{ID: env.AggregateID.String(), Version: 1}, nil
}

func (s *server) UpdateSpec(ctx context.Context, req *UpdateSpecRequest) (*UpdateSpecResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, statusFor(&domain.ValidationError{Kind: domain.InvalidCharacters, Message: "id must be a uuid"})
	}
	env, err := s.svc.UpdateSpec(ctx, id, domain.UpdateSpecCommand{
		Content:     req.Content,
		Description: req.Description,
		Ctx:         cmdContext(ctx),
	})
	if err != nil {
		return nil, statusFor(err)
	}
	updated := env.Event.(domain.Updated)
	return &UpdateSpecResponse{Version: int32(updated.Version.Int())}, nil
}

func (s *server) PublishSpec(ctx context.Context, req *PublishSpecRequest) (*PublishSpecResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, statusFor(&domain.ValidationError{Kind: domain.InvalidCharacters, Message: "id must be a uuid"})
	}
	var version *int
	if req.Version != nil {
		v := int(*req.Version)
		version = &v
	}
	if _, err := s.svc.PublishSpec(ctx, id, domain.PublishSpecCommand{Version: version, Ctx: cmdContext(ctx)}); err != nil {
		return nil, statusFor(err)
	}
	return &PublishSpecResponse{}, nil
}

func (s *server) DeprecateSpec(ctx context.Context, req *DeprecateSpecRequest) (*DeprecateSpecResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, statusFor(&domain.ValidationError{Kind: domain.InvalidCharacters, Message: "id must be a uuid"})
	}
	if _, err := s.svc.DeprecateSpec(ctx, id, domain.DeprecateSpecCommand{Reason: req.Reason, Ctx: cmdContext(ctx)}); err != nil {
		return nil, statusFor(err)
	}
	return &DeprecateSpecResponse{}, nil
}

func (s *server) GetSpec(ctx context.Context, req *GetSpecRequest) (*SpecMessage, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, statusFor(&domain.ValidationError{Kind: domain.InvalidCharacters, Message: "id must be a uuid"})
	}
	spec, err := s.svc.GetSpec(ctx, id)
	if err != nil {
		return nil, statusFor(err)
	}
	return specMessageFrom(spec), nil
}

func (s *server) ListSpecs(ctx context.Context, req *ListSpecsRequest) (*ListSpecsResponse, error) {
	var state *domain.State
	if req.State != nil {
		st := domain.State(*req.State)
		switch st {
		case domain.StateDraft, domain.StatePublished, domain.StateDeprecated, domain.StateDeleted:
			state = &st
		default:
			return nil, statusFor(&domain.ValidationError{Kind: domain.InvalidCharacters, Message: "unrecognized state"})
		}
	}
	limit := int(req.Limit)
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	specs, total, err := s.svc.ListSpecs(ctx, state, limit, int(req.Offset))
	if err != nil {
		return nil, statusFor(err)
	}
	messages := make([]*SpecSummaryMessage, len(specs))
	for i, sp := range specs {
		messages[i] = specSummaryMessageFrom(sp)
	}
	return &ListSpecsResponse{Specs: messages, Total: int32(total), Limit: int32(limit), Offset: req.Offset}, nil
}

func (s *server) GetSpecVersion(ctx context.Context, req *GetSpecVersionRequest) (*SpecVersionMessage, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, statusFor(&domain.ValidationError{Kind: domain.InvalidCharacters, Message: "id must be a uuid"})
	}
	entry, err := s.svc.GetSpecVersion(ctx, id, int(req.Version))
	if err != nil {
		return nil, statusFor(err)
	}
	return specVersionMessageFrom(entry), nil
}

func (s *server) GetSpecHistory(ctx context.Context, req *GetSpecHistoryRequest) (*GetSpecHistoryResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, statusFor(&domain.ValidationError{Kind: domain.InvalidCharacters, Message: "id must be a uuid"})
	}
	envelopes, err := s.svc.GetSpecHistory(ctx, id)
	if err != nil {
		return nil, statusFor(err)
	}
	messages := make([]*HistoryEventMessage, len(envelopes))
	for i, env := range envelopes {
		messages[i] = historyEventMessageFrom(env)
	}
	return &GetSpecHistoryResponse{Events: messages}, nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)
