package services

import (
	"errors"

	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

var _ checkout.Catalog = (*CatalogService)(nil)

// Browse filters, sorts and groups the published catalog.
func (s *CatalogService) Browse(f domain.Filters) (catalog.Result, catalog.Facets, error) {
	all, err := s.Prods.ListPublished()
	if err != nil {
		return catalog.Result{}, catalog.Facets{}, err
	}
	return catalog.Apply(all, f), catalog.BuildFacets(all), nil
}

func (s *CatalogService) List(f domain.Filters) ([]domain.Product, error) {
	all, err := s.Prods.ListPublished()
	if err != nil {
		return nil, err
	}
	return catalog.Sort(catalog.Filter(all, f), f.SortBy), nil
}

// Product returns a published product and the variant group it belongs to.
func (s *CatalogService) Product(id string) (domain.Product, domain.VariantGroup, error) {
	p, err := s.Prods.Get(id)
	if err != nil {
		return domain.Product{}, domain.VariantGroup{}, err
	}
	if p.Status != domain.StatusPublished {
		return domain.Product{}, domain.VariantGroup{}, repos.ErrNotFound
	}
	all, err := s.Prods.ListPublished()
	if err != nil {
		return domain.Product{}, domain.VariantGroup{}, err
	}
	for _, g := range catalog.GroupByVariant(all) {
		for _, member := range g.Products {
			if member.ID == id {
				return p, catalog.Select(g, id), nil
			}
		}
	}
	return p, domain.VariantGroup{Key: p.ID, Products: []domain.Product{p}}, nil
}

// Lookup resolves a purchasable product for checkout.
func (s *CatalogService) Lookup(id string) (domain.Product, bool, error) {
	p, err := s.Prods.Get(id)
	if errors.Is(err, repos.ErrNotFound) {
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, err
	}
	if p.Status != domain.StatusPublished || p.Price == nil {
		return domain.Product{}, false, nil
	}
	return p, true, nil
}
