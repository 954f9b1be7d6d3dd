package form

import "github.com/wanderly/guide-apply/model"

// completenessRule is one row of the submit-eligibility table. Rules run
// in declaration order and the failing labels keep that order.
type completenessRule struct {
	label string
	ok    func(v model.FormValues) bool
}

var completenessRules = []completenessRule{
	{"Full name", func(v model.FormValues) bool { return v.Name != "" }},
	{"Age (18-120)", func(v model.FormValues) bool { return v.Age >= 18 && v.Age <= 120 }},
	{"Sex", func(v model.FormValues) bool { return v.Sex != "" }},
	{"City", func(v model.FormValues) bool { return v.City != "" }},
	{"Bio", func(v model.FormValues) bool { return v.Bio != "" }},
	{"Occupation", func(v model.FormValues) bool { return v.Occupation != "" }},
	{"Zipcode", func(v model.FormValues) bool { return v.Zipcode != "" }},
	{"Residence start date", func(v model.FormValues) bool { return v.ResidenceSince != "" }},
	{"Years of experience", func(v model.FormValues) bool { return v.ExperienceYears >= 0 && v.ExperienceYears <= 80 }},
	{"Number of tours given", func(v model.FormValues) bool { return v.ToursGiven >= 0 }},
	{"Languages", func(v model.FormValues) bool { return len(v.Languages) > 0 }},
	{"Services offered", func(v model.FormValues) bool { return len(v.Services) > 0 }},
	{"Target groups", func(v model.FormValues) bool { return len(v.TargetGroups) > 0 }},
	{"Group size range", func(v model.FormValues) bool {
		return v.MinPeople >= 1 && v.MaxPeople >= 1 && v.MinPeople <= v.MaxPeople
	}},
	{"Tour duration range", func(v model.FormValues) bool {
		return v.MinDuration >= 1 && v.MaxDuration >= 1 && v.MinDuration <= v.MaxDuration
	}},
	{"Hourly price", func(v model.FormValues) bool { return v.PricePerHour >= 0 }},
	{"Extra person price", func(v model.FormValues) bool { return v.PricePerExtra >= 0 }},
	{"Currency", func(v model.FormValues) bool { return model.ValidCurrency(v.Currency) }},
	{"Question 1 answer", questionAnswered(0)},
	{"Question 2 answer", questionAnswered(1)},
	{"Question 3 answer", questionAnswered(2)},
	{"Question 4 answer", questionAnswered(3)},
	{"Question 5 answer", questionAnswered(4)},
}

func questionAnswered(i int) func(v model.FormValues) bool {
	return func(v model.FormValues) bool { return v.QuestionAnswers[i] != "" }
}

// MissingFields evaluates the whole rule table against values and returns
// the labels of every failing rule, in table order. An empty result means
// the form is eligible to submit. The pass is recomputed from scratch on
// every call; there is no incremental state.
func MissingFields(v model.FormValues) []string {
	var missing []string
	for _, rule := range completenessRules {
		if !rule.ok(v) {
			missing = append(missing, rule.label)
		}
	}
	return missing
}
