// Package fixtures holds a sample proposal used by the seed command and by
// tests that need a realistic, fully populated aggregate.
package fixtures

import (
	"time"

	"github.com/c360studio/semproposal/proposal"
)

// ContosoProposalID is the id of the sample proposal.
const ContosoProposalID = "prop-2024-1847"

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Sources returns the sample provenance records.
func Sources() []proposal.Source {
	return []proposal.Source{
		{
			ID:             "src-001",
			Type:           proposal.SourceCRM,
			Title:          "Contoso Manufacturing - Opportunity Record",
			Reference:      "crm://opportunities/OPP-2024-1847",
			Excerpt:        "Enterprise cloud migration, five-year term, $2.4M. Primary contact Sarah Chen (CTO). Legacy on-prem estate, security and scaling concerns.",
			LastUpdated:    at("2024-12-15T10:30:00Z"),
			RelevanceScore: 0.95,
			Author:         "John Miller",
		},
		{
			ID:             "src-002",
			Type:           proposal.SourceMeetingNotes,
			Title:          "Discovery Call with Contoso CTO - Dec 12, 2024",
			Reference:      "meetings://notes/MTG-20241212-001",
			Excerpt:        "Needs a 99.9% uptime SLA, HIPAA coverage for patient data, US East and EU West regions, and SAP ERP integration.",
			LastUpdated:    at("2024-12-12T15:45:00Z"),
			RelevanceScore: 0.92,
			Author:         "Jennifer Park",
		},
		{
			ID:             "src-003",
			Type:           proposal.SourcePreviousProposal,
			Title:          "GlobalTech Industries - Cloud Migration Proposal (Won)",
			Reference:      "proposals://2024/Q3/PROP-2024-0782",
			Excerpt:        "Comparable manufacturing client. Three-phase migration, security-first narrative, volume discounts.",
			LastUpdated:    at("2024-09-20T09:00:00Z"),
			RelevanceScore: 0.88,
			Author:         "Sales Engineering Team",
		},
		{
			ID:             "src-004",
			Type:           proposal.SourceSalesPlaybook,
			Title:          "Enterprise Manufacturing - Solution Framework",
			Reference:      "playbook://verticals/manufacturing/enterprise",
			Excerpt:        "Lead with IoT integration and predictive maintenance. Address data residency early.",
			LastUpdated:    at("2024-11-01T12:00:00Z"),
			RelevanceScore: 0.85,
			Author:         "Sales Enablement",
		},
		{
			ID:             "src-005",
			Type:           proposal.SourceCustomerWebsite,
			Title:          "Contoso Manufacturing - About Us",
			Reference:      "https://contosomanufacturing.com/about",
			Excerpt:        "Medical device manufacturer, 12 facilities worldwide, ISO 13485 certified, roughly $850M annual revenue.",
			LastUpdated:    at("2024-12-10T08:00:00Z"),
			RelevanceScore: 0.78,
			Author:         "Web Crawler",
		},
		{
			ID:             "src-006",
			Type:           proposal.SourceDocument,
			Title:          "Contoso IT Infrastructure Assessment",
			Reference:      "documents://assessments/contoso-it-assessment.pdf",
			Excerpt:        "200+ VMware VMs, 50TB of data, hardware averaging seven years old, $450K yearly maintenance.",
			LastUpdated:    at("2024-12-08T14:20:00Z"),
			RelevanceScore: 0.91,
			Author:         "Technical Assessment Team",
		},
		{
			ID:             "src-007",
			Type:           proposal.SourceEmail,
			Title:          "RE: Security Requirements from CISO",
			Reference:      "email://threads/THREAD-20241210-445",
			Excerpt:        "SOC 2 Type II, HIPAA and GDPR required. Encryption at rest and in transit, MFA everywhere, quarterly pen tests.",
			LastUpdated:    at("2024-12-10T16:55:00Z"),
			RelevanceScore: 0.89,
			Author:         "David Kumar (CISO, Contoso)",
		},
	}
}

type sectionDef struct {
	id, title, content string
	confidence         float64
	sources            []int
	state              proposal.ApprovalState
	modified           string
	modifiedBy         string
	notes              string
}

var sectionDefs = []sectionDef{
	{
		id:    "sec-001",
		title: "Executive Summary",
		content: `Contoso Manufacturing is ready to modernize. This proposal lays out a phased migration to Azure that retires aging on-premises hardware and prepares the business for IoT and analytics work.

**Outcomes:** 40% lower infrastructure cost over three years, a 99.95% uptime SLA across two regions, and HIPAA, SOC 2 Type II and GDPR coverage from day one.

**Investment:** $2.4M over five years with a projected three-year ROI of 285%.`,
		confidence: 0.88,
		sources:    []int{0, 1, 2},
		state:      proposal.ApprovalPending,
		modified:   "2024-12-20T11:30:00Z",
		modifiedBy: "AI Copilot",
	},
	{
		id:    "sec-002",
		title: "Understanding Your Business",
		content: `Contoso has built medical devices for more than fifty years and runs twelve ISO 13485 certified plants. Its 200+ virtual machines and 50TB of data sit on hardware that averages seven years old.

Leadership priorities from discovery: regulatory compliance, round-the-clock availability for the plants, room for IoT-driven quality control, and lower maintenance spend.`,
		confidence: 0.91,
		sources:    []int{0, 1, 4, 5},
		state:      proposal.ApprovalApproved,
		modified:   "2024-12-19T14:20:00Z",
		modifiedBy: "Jennifer Park",
		notes:      "Excellent customer understanding. Approved.",
	},
	{
		id:    "sec-003",
		title: "Proposed Solution Architecture",
		content: `Two Azure regions (US East 2 and West Europe) host SAP on E-series VMs with geo-replicated premium storage. Site Recovery gives a 4-hour RTO and 15-minute RPO, and ExpressRoute provides private connectivity.

Security covers AES-256 encryption at rest, TLS 1.3 in transit, conditional access with MFA, and a HIPAA environment under a Business Associate Agreement.`,
		confidence: 0.76,
		sources:    []int{1, 5, 6, 3},
		state:      proposal.ApprovalNeedsRevision,
		modified:   "2024-12-20T09:45:00Z",
		modifiedBy: "AI Copilot",
		notes:      "Need to validate specific VM sizing with technical team. Also verify ExpressRoute pricing.",
	},
	{
		id:    "sec-004",
		title: "Migration Approach & Timeline",
		content: `**Phase 1 (months 1-3):** landing zone, connectivity, and a pilot of non-critical workloads.

**Phase 2 (months 4-8):** SAP and database migration in planned windows, then 50TB of file data.

**Phase 3 (months 9-12):** remaining workloads, cost tuning, IoT platform rollout, and handoff.

Every wave is preceded by a full backup and has a tested rollback.`,
		confidence: 0.82,
		sources:    []int{2, 3, 5},
		state:      proposal.ApprovalDraft,
		modified:   "2024-12-20T10:15:00Z",
		modifiedBy: "AI Copilot",
	},
	{
		id:    "sec-005",
		title: "Investment & ROI",
		content: `**Total investment:** $2.4M over five years. Year one is $580K including migration services; years two to five run $455K annually.

**Savings:** $450K per year in maintenance, $600K of avoided hardware refresh, and reduced downtime. Payback lands at eighteen months.

A 5% discount applies to a three-year prepayment.`,
		confidence: 0.73,
		sources:    []int{0, 5},
		state:      proposal.ApprovalDraft,
		modified:   "2024-12-20T11:00:00Z",
		modifiedBy: "AI Copilot",
	},
}

// ContosoProposal returns the fully populated sample proposal. Derived
// metrics are filled in, so it can be imported verbatim.
func ContosoProposal() proposal.Proposal {
	sources := Sources()

	sections := make([]proposal.Section, 0, len(sectionDefs))
	for i, def := range sectionDefs {
		var secSources []proposal.Source
		for _, idx := range def.sources {
			secSources = append(secSources, sources[idx])
		}
		sections = append(sections, proposal.Section{
			ID:            def.id,
			Title:         def.title,
			Content:       def.content,
			Confidence:    def.confidence,
			Sources:       secSources,
			ApprovalState: def.state,
			Order:         i + 1,
			LastModified:  at(def.modified),
			ModifiedBy:    def.modifiedBy,
			ReviewerNotes: def.notes,
			WordCount:     proposal.EstimateWordCount(def.content),
		})
	}

	expires := at("2024-12-25T23:59:59Z")
	p := proposal.Proposal{
		ID:               ContosoProposalID,
		Title:            "Cloud Migration & Modernization Proposal",
		ClientName:       "Contoso Manufacturing",
		ClientID:         "CRM-ACCT-8847",
		OpportunityValue: 2_400_000,
		Status:           proposal.StatusInReview,
		Sections:         sections,
		OpenQuestions: []proposal.OpenQuestion{
			{
				ID:                "q-001",
				Question:          "What is the exact VM sizing requirement for the SAP production environment?",
				Rationale:         "The estimate assumes E32s v3 instances; real CPU and memory needs drive both performance and cost.",
				Priority:          proposal.PriorityHigh,
				RelatedSectionIDs: []string{"sec-003", "sec-005"},
				SuggestedSources:  []proposal.Source{sources[5]},
				CreatedAt:         at("2024-12-20T09:45:00Z"),
				Category:          "Technical",
			},
			{
				ID:                "q-002",
				Question:          "Has the customer confirmed data residency requirements for European operations?",
				Rationale:         "GDPR may require EU data to stay in EU regions, which changes the architecture and cost.",
				Priority:          proposal.PriorityHigh,
				RelatedSectionIDs: []string{"sec-003"},
				SuggestedSources:  []proposal.Source{sources[6]},
				CreatedAt:         at("2024-12-20T10:00:00Z"),
				Category:          "Compliance",
			},
			{
				ID:                "q-003",
				Question:          "What is the customer's preferred maintenance window for the SAP migration?",
				Rationale:         "The timeline assumes weekend windows.",
				Priority:          proposal.PriorityMedium,
				RelatedSectionIDs: []string{"sec-004"},
				CreatedAt:         at("2024-12-20T10:30:00Z"),
				Category:          "Timeline",
			},
			{
				ID:                "q-004",
				Question:          "Are there compliance frameworks beyond HIPAA and GDPR?",
				Rationale:         "Medical device makers may also need FDA 21 CFR Part 11.",
				Priority:          proposal.PriorityMedium,
				RelatedSectionIDs: []string{"sec-003"},
				SuggestedSources:  []proposal.Source{sources[6]},
				CreatedAt:         at("2024-12-20T11:15:00Z"),
				Category:          "Compliance",
			},
			{
				ID:                "q-005",
				Question:          "What storage growth is expected over the next three years?",
				Rationale:         "Growth projections size storage and sharpen long-term cost estimates.",
				Priority:          proposal.PriorityLow,
				RelatedSectionIDs: []string{"sec-003", "sec-005"},
				CreatedAt:         at("2024-12-20T11:20:00Z"),
				Category:          "Planning",
			},
		},
		Nudges: []proposal.Nudge{
			{
				ID:               "n-001",
				Type:             proposal.NudgeWarning,
				Message:          "The ROI section is at 73% confidence without a finance cost breakdown. Consider requesting a formal quote.",
				ActionLabel:      "Review Section",
				ActionType:       proposal.NudgeActionNavigate,
				ActionTarget:     "sec-005",
				Priority:         proposal.PriorityHigh,
				RelatedSectionID: "sec-005",
				CreatedAt:        at("2024-12-20T11:30:00Z"),
			},
			{
				ID:          "n-002",
				Type:        proposal.NudgeSuggestion,
				Message:     "Won manufacturing proposals often include a Customer Success Stories section.",
				ActionLabel: "Add Section",
				ActionType:  proposal.NudgeActionEdit,
				Priority:    proposal.PriorityMedium,
				CreatedAt:   at("2024-12-20T11:35:00Z"),
			},
			{
				ID:               "n-003",
				Type:             proposal.NudgeReminder,
				Message:          "Due in 5 days. Solution Architecture still needs technical review.",
				ActionLabel:      "Request Review",
				ActionType:       proposal.NudgeActionReview,
				ActionTarget:     "sec-003",
				Priority:         proposal.PriorityHigh,
				RelatedSectionID: "sec-003",
				CreatedAt:        at("2024-12-20T08:00:00Z"),
				ExpiresAt:        &expires,
			},
			{
				ID:          "n-004",
				Type:        proposal.NudgeBestPractice,
				Message:     "Deals over $2M win more often with a named executive sponsor on our side.",
				ActionLabel: "Add Executive Sponsor",
				ActionType:  proposal.NudgeActionEdit,
				Priority:    proposal.PriorityMedium,
				CreatedAt:   at("2024-12-20T09:00:00Z"),
			},
			{
				ID:          "n-005",
				Type:        proposal.NudgeCompliance,
				Message:     "HIPAA is in scope. Make sure a Business Associate Agreement is in the contract terms.",
				ActionLabel: "Review Compliance",
				ActionType:  proposal.NudgeActionReview,
				Priority:    proposal.PriorityHigh,
				CreatedAt:   at("2024-12-20T10:00:00Z"),
			},
			{
				ID:          "n-006",
				Type:        proposal.NudgeInfo,
				Message:     "The CTO opened this proposal 3 times in the last day. Consider a follow-up call.",
				ActionLabel: "Dismiss",
				ActionType:  proposal.NudgeActionDismiss,
				Priority:    proposal.PriorityLow,
				CreatedAt:   at("2024-12-20T07:30:00Z"),
			},
		},
		CreatedAt:    at("2024-12-15T09:00:00Z"),
		LastModified: at("2024-12-20T11:30:00Z"),
		DueDate:      at("2024-12-25T17:00:00Z"),
		Owner: proposal.Person{
			ID:        "user-1234",
			Name:      "Jennifer Park",
			Email:     "jennifer.park@company.com",
			AvatarURL: "https://i.pravatar.cc/150?u=jennifer.park",
		},
		Industry: "Medical Devices Manufacturing",
		Stakeholders: []proposal.Stakeholder{
			{Name: "Sarah Chen", Title: "Chief Technology Officer", Email: "sarah.chen@contoso.com"},
			{Name: "Michael Rodriguez", Title: "VP of Operations", Email: "michael.rodriguez@contoso.com"},
			{Name: "David Kumar", Title: "Chief Information Security Officer", Email: "david.kumar@contoso.com"},
		},
	}
	p.OverallConfidence = proposal.OverallConfidence(p.Sections)
	p.TotalWordCount = proposal.TotalWordCount(p.Sections)
	return p
}

// Seed imports the sample proposal into e and makes it active.
func Seed(e proposal.Engine) string {
	e.ImportProposal(ContosoProposal())
	e.SetActiveProposal(ContosoProposalID)
	return ContosoProposalID
}
