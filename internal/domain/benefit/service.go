package benefit

import "context"

type BenefitService interface {
	Create(ctx context.Context, req CreateBenefitRequest) (BenefitResponse, error)
	Get(ctx context.Context, id string) (BenefitResponse, error)
	List(ctx context.Context, filter BenefitFilter) (ListBenefitResponse, error)
	Review(ctx context.Context, req ReviewBenefitRequest) (BenefitResponse, error)
}
