package math

import (
	"fmt"

	"github.com/specialistvlad/voxelflow/internal/node"
)

func element(group string, i int) string {
	return fmt.Sprintf("%s_%d", group, i)
}

// expandLerp lowers Lerp to A + (B - A) * Alpha.
func expandLerp(x node.Expander) error {
	diff, err := x.NewNode(TypeSubtract)
	if err != nil {
		return err
	}
	if err := diff.SetInput(pinA, x.Input(pinB)); err != nil {
		return err
	}
	if err := diff.SetInput(pinB, x.Input(pinA)); err != nil {
		return err
	}

	scaled, err := x.NewNode(TypeMultiply)
	if err != nil {
		return err
	}
	if err := scaled.SetInput(element(pinValues, 0), diff.Output(pinResult)); err != nil {
		return err
	}
	if err := scaled.SetInput(element(pinValues, 1), x.Input(pinAlpha)); err != nil {
		return err
	}

	sum, err := x.NewNode(TypeAdd)
	if err != nil {
		return err
	}
	if err := sum.SetInput(element(pinValues, 0), x.Input(pinA)); err != nil {
		return err
	}
	if err := sum.SetInput(element(pinValues, 1), scaled.Output(pinResult)); err != nil {
		return err
	}
	return x.SetOutput(pinResult, sum.Output(pinResult))
}

// expandDistance lowers Distance to Length(B - A).
func expandDistance(x node.Expander) error {
	diff, err := x.NewNode(TypeSubtract)
	if err != nil {
		return err
	}
	if err := diff.SetInput(pinA, x.Input(pinB)); err != nil {
		return err
	}
	if err := diff.SetInput(pinB, x.Input(pinA)); err != nil {
		return err
	}

	length, err := x.NewNode(TypeLength)
	if err != nil {
		return err
	}
	if err := length.SetInput(pinValue, diff.Output(pinResult)); err != nil {
		return err
	}
	return x.SetOutput(pinDistance, length.Output(pinResult))
}
