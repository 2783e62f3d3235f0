package close

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/resilience"
)

// fieldSpec describes one of the four lead custom fields the pipeline
// depends on.
type fieldSpec struct {
	name    string
	kind    string
	choices []string
}

func requiredFields() []fieldSpec {
	choices := make([]string, len(model.AllSources))
	for i, s := range model.AllSources {
		choices[i] = string(s)
	}
	return []fieldSpec{
		{name: model.FieldLeadSource, kind: "choices", choices: choices},
		{name: model.FieldWatchTime, kind: "number"},
		{name: model.FieldPriority, kind: "number"},
		{name: model.FieldWebinarDate, kind: "date"},
	}
}

// EnsureFields resolves the field binding: it finds each required custom
// field by name and creates any that are missing. The returned binding is
// complete and immutable; a failure here is fatal because nothing
// downstream can write classification fields without it.
func EnsureFields(ctx context.Context, c Client) (model.FieldBinding, error) {
	existing, err := c.ListCustomFields(ctx)
	if err != nil {
		return model.FieldBinding{}, resilience.NewFatalError(eris.Wrap(err, "close: resolve field binding"))
	}

	byName := make(map[string]CustomField, len(existing))
	for _, f := range existing {
		byName[f.Name] = f
	}

	ids := make(map[string]string, 4)
	for _, spec := range requiredFields() {
		if f, ok := byName[spec.name]; ok {
			ids[spec.name] = f.ID
			continue
		}
		created, err := c.CreateCustomField(ctx, CustomFieldRequest{
			Name:    spec.name,
			Type:    spec.kind,
			Choices: spec.choices,
		})
		if err != nil {
			return model.FieldBinding{}, resilience.NewFatalError(
				eris.Wrap(err, "close: provision custom field "+spec.name))
		}
		zap.L().Info("provisioned custom field",
			zap.String("field", spec.name),
			zap.String("id", created.ID))
		ids[spec.name] = created.ID
	}

	return model.FieldBinding{
		LeadSource:  ids[model.FieldLeadSource],
		WatchTime:   ids[model.FieldWatchTime],
		Priority:    ids[model.FieldPriority],
		WebinarDate: ids[model.FieldWebinarDate],
	}, nil
}
