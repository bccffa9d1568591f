package pipeline

import (
	"fmt"

	"github.com/niyax/cvm/backend/internal/catalog"
	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/internal/s0_ingest"
	"github.com/niyax/cvm/backend/internal/s1_lifecycle"
	"github.com/niyax/cvm/backend/internal/s2_opportunity"
	"github.com/niyax/cvm/backend/internal/s3_offers"
)

// Steps computes step outputs from a session snapshot.
// Nothing here touches a store, a file or a clock.
type Steps struct {
	classifier *s1_lifecycle.Classifier
	assigner   *s2_opportunity.Assigner
	offers     *s3_offers.Generator
	maxRows    int
	sampleSeed int64
}

// NewSteps wires the stage components over one catalog
func NewSteps(cat *catalog.Catalog, maxRows int, sampleSeed int64) *Steps {
	return &Steps{
		classifier: s1_lifecycle.NewClassifier(cat.Lifecycle),
		assigner:   s2_opportunity.NewAssigner(cat.Opportunity),
		offers:     s3_offers.NewGenerator(cat.Offers),
		maxRows:    maxRows,
		sampleSeed: sampleSeed,
	}
}

// records samples the raw upload, brings it to the canonical columns and
// reads the subscriber records from that table
func (s *Steps) records(sess *contracts.Session) ([]contracts.Subscriber, error) {
	if sess.Raw == nil {
		return nil, fmt.Errorf("%w: session has no uploaded data", contracts.ErrValidation)
	}
	table, err := s0_ingest.NormalizeTable(s0_ingest.Sample(sess.Raw, s.maxRows, s.sampleSeed))
	if err != nil {
		return nil, err
	}
	return s0_ingest.Normalize(table)
}

// Lifecycle classifies every sampled subscriber
func (s *Steps) Lifecycle(sess *contracts.Session) (*StepOutput, error) {
	recs, err := s.records(sess)
	if err != nil {
		return nil, err
	}

	classified := s.classifier.Classify(recs)
	summary := make(map[string]int)
	for stage, n := range s1_lifecycle.Summary(classified) {
		summary[stage.Key()] = n
	}

	return &StepOutput{
		Table:   s1_lifecycle.ToTable(classified),
		Summary: summary,
	}, nil
}

// Opportunity reclassifies the sample and assigns one opportunity per
// (subscriber, selected LOB). The selection is stored as the new controls.
func (s *Steps) Opportunity(sess *contracts.Session, req StepRequest) (*StepOutput, error) {
	recs, err := s.records(sess)
	if err != nil {
		return nil, err
	}

	lobs := contracts.NormalizeLOBs(req.LOBs)
	types := req.OpportunityTypes
	if len(types) == 0 {
		types = []string{"Auto"}
	}

	opps := s.assigner.Assign(s.classifier.Classify(recs), lobs, types)

	return &StepOutput{
		Table: s2_opportunity.ToTable(opps),
		Controls: &contracts.Controls{
			LOBs:  lobs,
			Types: append([]string(nil), types...),
		},
		Summary: s2_opportunity.Summary(opps),
	}, nil
}

// Offers generates offer text from the stored opportunity table using the
// LOBs selected at the opportunity step
func (s *Steps) Offers(sess *contracts.Session, req StepRequest) (*StepOutput, error) {
	defaultCount := s3_offers.DefaultOfferCount
	if req.OfferCount != nil {
		defaultCount = s3_offers.ClampCount(*req.OfferCount)
	}

	res, err := s.offers.Generate(sess.Steps[contracts.StepOpportunity], sess.Controls.LOBs, req.OfferCountsPerOpp, defaultCount)
	if err != nil {
		return nil, err
	}

	controls := contracts.Controls{
		LOBs:        append([]contracts.LOB(nil), sess.Controls.LOBs...),
		Types:       append([]string(nil), sess.Controls.Types...),
		OfferCounts: s3_offers.NormalizeCounts(req.OfferCountsPerOpp),
	}

	return &StepOutput{
		Table:    res.Table,
		Controls: &controls,
		Summary: map[string]int{
			"groups":  res.Groups,
			"skipped": res.Skipped,
		},
	}, nil
}

// checkPrerequisite fails with the client-facing precondition message
func checkPrerequisite(sess *contracts.Session, step contracts.Step) error {
	prereq, ok := step.Prerequisite()
	if !ok || sess.Done(prereq) {
		return nil
	}
	return fmt.Errorf("%w: Run %s step first.", contracts.ErrPrecondition, prereq.Title())
}

// commit applies a step output to the session.
// Downstream outputs and flags are cleared: they were derived from the
// previous version of this step.
func commit(sess *contracts.Session, step contracts.Step, out *StepOutput) error {
	if err := checkPrerequisite(sess, step); err != nil {
		return err
	}

	for _, d := range step.Downstream() {
		delete(sess.Steps, d)
		delete(sess.Status, d)
	}
	if step != contracts.StepLaunch {
		sess.OutputPath = ""
	}

	sess.Steps[step] = out.Table
	sess.Status[step] = true
	if out.Controls != nil {
		sess.Controls = *out.Controls
	}
	if out.OutputPath != "" {
		sess.OutputPath = out.OutputPath
	}
	return nil
}
