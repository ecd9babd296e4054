package tools

import (
	"context"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateCalculatorTool answers date arithmetic that comes up constantly in
// employment questions: notice periods, probation end dates, vacation
// accrual windows.
type DateCalculatorTool struct{}

func NewDateCalculatorTool() *DateCalculatorTool {
	return &DateCalculatorTool{}
}

func (t *DateCalculatorTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "date_calculator",
		Description: "Perform date arithmetic: days between two dates, add days or business days to a date.",
		Parameters: []ToolParameter{
			{
				Name:        "operation",
				Type:        "string",
				Description: "The operation to perform",
				Required:    true,
				Enum:        []string{"days_between", "business_days_between", "add_days", "add_business_days"},
			},
			{
				Name:        "start_date",
				Type:        "string",
				Description: "Start date in YYYY-MM-DD format",
				Required:    true,
			},
			{
				Name:        "end_date",
				Type:        "string",
				Description: "End date in YYYY-MM-DD format (for the *_between operations)",
				Required:    false,
			},
			{
				Name:        "days",
				Type:        "number",
				Description: "Number of days to add (for the add_* operations)",
				Required:    false,
			},
		},
		ServerURL: "local",
	}
}

func (t *DateCalculatorTool) GetName() string {
	return "date_calculator"
}

func (t *DateCalculatorTool) GetDescription() string {
	return "Date arithmetic for deadlines and notice periods"
}

func (t *DateCalculatorTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	operation, _ := args["operation"].(string)
	startDateStr, _ := args["start_date"].(string)

	startDate, err := time.Parse(dateLayout, startDateStr)
	if err != nil {
		return errorResult("date_calculator", fmt.Sprintf("invalid start_date %q, expected YYYY-MM-DD", startDateStr), start),
			fmt.Errorf("invalid start_date: %w", err)
	}

	switch operation {
	case "days_between", "business_days_between":
		endDateStr, _ := args["end_date"].(string)
		endDate, err := time.Parse(dateLayout, endDateStr)
		if err != nil {
			return errorResult("date_calculator", fmt.Sprintf("invalid end_date %q, expected YYYY-MM-DD", endDateStr), start),
				fmt.Errorf("invalid end_date: %w", err)
		}
		if endDate.Before(startDate) {
			return errorResult("date_calculator", "end_date must not be before start_date", start),
				fmt.Errorf("end_date before start_date")
		}
		var days int
		if operation == "days_between" {
			days = int(endDate.Sub(startDate).Hours() / 24)
		} else {
			days = businessDaysBetween(startDate, endDate)
		}
		return successResult("date_calculator", fmt.Sprintf("%d", days), start), nil

	case "add_days", "add_business_days":
		days, ok := toInt(args["days"])
		if !ok {
			return errorResult("date_calculator", "days parameter is required and must be a number", start),
				fmt.Errorf("days parameter is required")
		}
		var result time.Time
		if operation == "add_days" {
			result = startDate.AddDate(0, 0, days)
		} else {
			result = addBusinessDays(startDate, days)
		}
		return successResult("date_calculator", result.Format(dateLayout), start), nil

	default:
		return errorResult("date_calculator", fmt.Sprintf("unknown operation %q", operation), start),
			fmt.Errorf("unknown operation %q", operation)
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// businessDaysBetween counts weekdays in (start, end]. The start date
// itself is excluded, matching how notice periods are counted.
func businessDaysBetween(start, end time.Time) int {
	count := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if !isWeekend(d) {
			count++
		}
	}
	return count
}

func addBusinessDays(start time.Time, days int) time.Time {
	d := start
	for remaining := days; remaining > 0; {
		d = d.AddDate(0, 0, 1)
		if !isWeekend(d) {
			remaining--
		}
	}
	return d
}
