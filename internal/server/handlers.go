package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/engine"
)

// payload decodes the JSON request body. An empty body is an empty object.
func payload(c *fiber.Ctx) (map[string]any, error) {
	data := map[string]any{}
	body := c.Body()
	if len(body) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: request body must be a JSON object", engine.ErrInvalidInput)
	}
	return data, nil
}

func (s *Server) handleTrain(c *fiber.Ctx) error {
	path, err := s.engine.TrainModel(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Model trained: " + path,
	})
}

func (s *Server) handlePredict(c *fiber.Ctx) error {
	data, err := payload(c)
	if err != nil {
		return err
	}

	req, err := engine.DecodePredictRequest(data)
	if err != nil {
		return err
	}

	prediction, err := s.engine.PredictOpportunity(req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":     "ok",
		"prediction": prediction,
	})
}

func (s *Server) handleRecommend(c *fiber.Ctx) error {
	data, err := payload(c)
	if err != nil {
		return err
	}

	req, err := engine.DecodeRecommendRequest(data)
	if err != nil {
		return err
	}

	result, err := s.engine.RecommendFromTrends(req)
	if err != nil {
		return err
	}

	response := fiber.Map{
		"status": "ok",
		"result": result,
	}

	if s.advisor != nil && !result.Stats.Empty() {
		ctx, cancel := context.WithTimeout(c.UserContext(), adviceTimeout)
		defer cancel()

		advice, err := s.advisor.Advise(ctx, req.Skills, result)
		if err != nil {
			s.logger.Warn("advice skipped", zap.Error(err))
		} else {
			response["advice"] = advice
		}
	}

	return c.JSON(response)
}

func (s *Server) handleSample(c *fiber.Ctx) error {
	sample, err := s.engine.SampleData(sampleSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"sample": sample,
	})
}
