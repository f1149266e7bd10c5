package services

import (
	"context"

	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

// EvalCase is one question of an evaluation set. When Answer is empty the
// advisor is asked.
type EvalCase struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer,omitempty" json:"answer,omitempty"`
}

type EvalResult struct {
	Question string                  `json:"question"`
	Answer   string                  `json:"answer"`
	Strategy string                  `json:"strategy,omitempty"`
	Report   learning.AccuracyReport `json:"report"`
	Error    string                  `json:"error,omitempty"`
}

type EvalReport struct {
	Results []EvalResult `json:"results"`
	// Mean is over every case that produced an answer. Unparseable
	// questions count as 0; cases whose advisor call failed are left out.
	Mean   float64 `json:"mean"`
	Scored int     `json:"scored"`
	Failed int     `json:"failed"`
}

type EvalService interface {
	Evaluate(ctx context.Context, cases []EvalCase) (*EvalReport, error)
}

type evalService struct {
	log       *logger.Logger
	advisor   AdvisorService
	extractor learning.StructuredExtractor
}

func NewEvalService(log *logger.Logger, advisor AdvisorService, extractor learning.StructuredExtractor) EvalService {
	if extractor == nil {
		extractor = learning.PhraseExtractor{}
	}
	return &evalService{log: log.With("service", "EvalService"), advisor: advisor, extractor: extractor}
}

func (s *evalService) Evaluate(ctx context.Context, cases []EvalCase) (*EvalReport, error) {
	out := &EvalReport{Results: make([]EvalResult, 0, len(cases))}
	var sum float64
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := EvalResult{Question: c.Question, Answer: c.Answer}
		if res.Answer == "" && s.advisor != nil {
			ans, err := s.advisor.Ask(ctx, 0, c.Question)
			if err != nil {
				s.log.Warn("Eval question failed", "error", err)
				res.Error = err.Error()
				out.Failed++
				out.Results = append(out.Results, res)
				continue
			}
			res.Answer = ans.Answer
			res.Strategy = string(ans.Strategy)
		}
		res.Report = learning.EvaluateAnswer(s.extractor, c.Question, res.Answer)
		sum += res.Report.Score
		out.Scored++
		out.Results = append(out.Results, res)
	}
	if out.Scored > 0 {
		out.Mean = sum / float64(out.Scored)
	}
	return out, nil
}
