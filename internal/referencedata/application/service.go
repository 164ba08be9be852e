package application

import (
	"github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

// ReferenceDataService 参考数据查询门面。
type ReferenceDataService struct {
	registry domain.Registry
}

func NewReferenceDataService(registry domain.Registry) *ReferenceDataService {
	return &ReferenceDataService{registry: registry}
}

func (s *ReferenceDataService) Resolve(ticker string, broker domain.Broker) (domain.BrokerSymbolMapping, error) {
	return s.registry.Resolve(ticker, broker)
}

func (s *ReferenceDataService) ListInstruments() []domain.CanonicalInstrument {
	return s.registry.Instruments()
}

func (s *ReferenceDataService) ListMappings(ticker string) []domain.BrokerSymbolMapping {
	return s.registry.Mappings(ticker)
}
