// Package submit builds the final subscription-creation payload from a
// completed wizard draft. Stored references (meal types, delivery days,
// dislike categories) may be bare ids or previously-resolved objects;
// both are re-resolved against the live catalogs here.
package submit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"mealsub-admin/internal/catalog"
	stderrors "mealsub-admin/internal/common/errors"
	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/pricing"
	"mealsub-admin/internal/wizard"
)

var (
	errNoCustomerID = errors.New("draft holds no customer id")
	errNoPlanID     = errors.New("draft holds no plan id")
)

// Lookups is the catalog subset assembly needs.
type Lookups interface {
	MealTypes(ctx context.Context, planID int64) ([]catalog.MealType, error)
	DeliveryDays(ctx context.Context) ([]catalog.DeliveryDay, error)
	DislikeCategories(ctx context.Context) ([]catalog.DislikeCategory, error)
	CustomerInfo(ctx context.Context, customerID int64) (*catalog.CustomerInfo, error)
}

type Assembler struct {
	lookups Lookups
	log     logger.Logger
}

func NewAssembler(lookups Lookups, log logger.Logger) *Assembler {
	return &Assembler{
		lookups: lookups,
		log:     log.WithFields(map[string]interface{}{"component": "submissionAssembler"}),
	}
}

// Assemble builds the creation request. The backend requires a resolved
// customer and plan id, so a draft holding only a phone number (which the
// review gate accepts) is rejected here rather than submitted half-built.
// The customer-info lookup is the one fatal dependency: its failure
// aborts assembly so a partially populated request is never submitted.
// Catalog misses for individual references degrade to placeholder
// descriptors and a logged gap.
func (a *Assembler) Assemble(ctx context.Context, d wizard.Draft, breakdown pricing.Breakdown) (*catalog.SubscriptionRequest, error) {
	if d.CustomerID == nil {
		return nil, stderrors.NewSubmissionFailedError(errNoCustomerID)
	}
	if d.PlanID == nil {
		return nil, stderrors.NewSubmissionFailedError(errNoPlanID)
	}

	info, err := a.lookups.CustomerInfo(ctx, *d.CustomerID)
	if err != nil {
		return nil, err
	}

	req := &catalog.SubscriptionRequest{
		CustomerID:        *d.CustomerID,
		PlanID:            *d.PlanID,
		StartDate:         d.StartDate,
		Duration:          d.Duration,
		DriverID:          info.DriverID,
		DeliveryBranchID:  info.BranchID,
		AreaID:            info.AreaID,
		MealTypes:         a.resolveMealTypes(ctx, d),
		DeliveryDays:      a.resolveDeliveryDays(ctx, d),
		DislikeCategories: a.resolveDislikeCategories(ctx, d),
		Notes:             d.Notes,
	}
	if d.SubscriptionType != nil {
		req.SubscriptionType = int(*d.SubscriptionType)
		if *d.SubscriptionType == wizard.SubscriptionBranch {
			req.BranchID = d.BranchID
		}
	}

	if !d.IsSponsor {
		req.Invoice = a.buildInvoice(d, breakdown)
	}
	return req, nil
}

func (a *Assembler) resolveMealTypes(ctx context.Context, d wizard.Draft) []catalog.MealType {
	fresh := map[int64]string{}
	if d.PlanID != nil {
		if list, err := a.lookups.MealTypes(ctx, *d.PlanID); err == nil {
			for _, mt := range list {
				fresh[mt.ID] = mt.Name
			}
		}
	}

	out := make([]catalog.MealType, 0, len(d.MealTypes))
	for _, ref := range d.MealTypes {
		name := a.resolveName(fresh, ref, "Meal type")
		out = append(out, catalog.MealType{ID: ref.ID, Name: name})
	}
	return out
}

func (a *Assembler) resolveDeliveryDays(ctx context.Context, d wizard.Draft) []catalog.DeliveryDay {
	fresh := map[int64]string{}
	if list, err := a.lookups.DeliveryDays(ctx); err == nil {
		for _, dd := range list {
			fresh[dd.ID] = dd.Name
		}
	}

	out := make([]catalog.DeliveryDay, 0, len(d.DeliveryDays))
	for _, ref := range d.DeliveryDays {
		name := a.resolveName(fresh, ref, "Day")
		out = append(out, catalog.DeliveryDay{ID: ref.ID, Name: name})
	}
	return out
}

func (a *Assembler) resolveDislikeCategories(ctx context.Context, d wizard.Draft) []catalog.DislikeCategory {
	fresh := map[int64]string{}
	if list, err := a.lookups.DislikeCategories(ctx); err == nil {
		for _, dc := range list {
			fresh[dc.ID] = dc.Name
		}
	}

	out := make([]catalog.DislikeCategory, 0, len(d.DislikeCategories))
	for _, ref := range d.DislikeCategories {
		name := a.resolveName(fresh, ref, "Category")
		out = append(out, catalog.DislikeCategory{ID: ref.ID, Name: name})
	}
	return out
}

// resolveName prefers the fresh catalog name, then the name already held
// on the draft, then a synthesized placeholder. Misses are logged, not
// fatal.
func (a *Assembler) resolveName(fresh map[int64]string, ref wizard.Ref, label string) string {
	if name, ok := fresh[ref.ID]; ok && name != "" {
		return name
	}
	if ref.Name != "" {
		return ref.Name
	}
	a.log.Warn("reference missing from catalog, using placeholder", map[string]interface{}{
		"kind": label,
		"id":   ref.ID,
	})
	return fmt.Sprintf("%s %d", label, ref.ID)
}

func (a *Assembler) buildInvoice(d wizard.Draft, b pricing.Breakdown) *catalog.Invoice {
	inv := &catalog.Invoice{
		Total:            b.Total,
		Discount:         b.DiscountAmount,
		Net:              b.NetAmount,
		Tax:              b.TaxAmount,
		PaymentDiscounts: []catalog.PaymentDiscount{},
		PaymentMethods:   []catalog.PaymentMethod{},
	}

	if d.CouponDiscountID != nil && d.CouponDiscount > 0 {
		inv.PaymentDiscounts = append(inv.PaymentDiscounts, catalog.PaymentDiscount{
			DiscountID: *d.CouponDiscountID,
			Amount:     d.CouponDiscount,
		})
	}

	if d.PaymentMethodID != nil {
		inv.PaymentMethods = append(inv.PaymentMethods, catalog.PaymentMethod{
			PaymentTypeID: *d.PaymentMethodID,
			Amount:        b.Total,
			Reference:     d.PaymentReference,
		})
	}

	if len(d.UploadedFiles) > 0 {
		inv.UploadRequest = &catalog.UploadRequest{
			FileName: d.UploadedFiles[0].Name,
			Base64:   encodeFile(d.UploadedFiles[0].Content),
		}
	}
	return inv
}

// encodeFile never fails; empty or nil content encodes to "".
func encodeFile(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(content)
}
