// Package cli contains the bodytree command line tool, which loads a body tree from a JSON model and runs the
// kinematics, dynamics and inverse kinematics algorithms on it.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/logging"
)

const (
	// Flags.
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	modelFlag         = "model"
	flagPosition      = "position"
	flagVelocity      = "velocity"
	flagAcceleration  = "acceleration"
	flagBody          = "body"
	flagFrame         = "frame"
	flagCom           = "com"
	flagTarget        = "target"
	flagMaxIterations = "max-iterations"
	flagTolerance     = "tolerance"
	flagPlot          = "plot"

	frameSpace = "space"
	frameBody  = "body"
)

// runner holds what the Before hook sets up for the commands.
type runner struct {
	logger  logging.Logger
	logFile *lumberjack.Logger
}

func modelFlagDef() cli.Flag {
	return &cli.StringFlag{
		Name:     modelFlag,
		Aliases:  []string{"m"},
		Usage:    "load the body tree from JSON `FILE`",
		Required: true,
	}
}

func positionFlagDef(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    flagPosition,
		Aliases: []string{"q"},
		Usage:   usage + ", as comma separated joint coordinates; defaults to the neutral position",
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	r := &runner{}
	velocity := &cli.StringFlag{
		Name:  flagVelocity,
		Usage: "comma separated joint velocities, one per degree of freedom",
	}
	acceleration := &cli.StringFlag{
		Name:  flagAcceleration,
		Usage: "comma separated joint accelerations, one per degree of freedom",
	}
	body := &cli.StringFlag{
		Name:     flagBody,
		Aliases:  []string{"b"},
		Usage:    "body `NAME` or index",
		Required: true,
	}

	return &cli.App{
		Name:            "bodytree",
		Usage:           "compute the kinematics and dynamics of a rigid body tree",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogFile,
				Usage: "write logs to `FILE` instead of stderr; the file is rotated as it grows",
			},
		},
		Before: r.before,
		After:  r.after,
		Commands: []*cli.Command{
			{
				Name:   "describe",
				Usage:  "print the bodies and joints of a model",
				Flags:  []cli.Flag{modelFlagDef()},
				Action: r.describeAction,
			},
			{
				Name:  "fk",
				Usage: "print the pose, velocity and acceleration of every body",
				Flags: []cli.Flag{
					modelFlagDef(), positionFlagDef("joint position"), velocity, acceleration,
					&cli.BoolFlag{
						Name:  flagCom,
						Usage: "report the center of mass of each body instead of its origin",
					},
				},
				Action: r.forwardKinematicsAction,
			},
			{
				Name:  "jacobian",
				Usage: "print the Jacobian of a body",
				Flags: []cli.Flag{
					modelFlagDef(), positionFlagDef("joint position"), body,
					&cli.StringFlag{
						Name:  flagFrame,
						Value: frameSpace,
						Usage: "express the Jacobian in the space or body frame",
					},
				},
				Action: r.jacobianAction,
			},
			{
				Name:   "id",
				Usage:  "print the joint forces needed for a motion",
				Flags:  []cli.Flag{modelFlagDef(), positionFlagDef("joint position"), velocity, acceleration},
				Action: r.inverseDynamicsAction,
			},
			{
				Name:  "ik",
				Usage: "search for a joint position that brings a body to a target pose",
				Flags: []cli.Flag{
					modelFlagDef(), positionFlagDef("initial joint position"), body,
					&cli.StringFlag{
						Name:     flagTarget,
						Aliases:  []string{"t"},
						Usage:    "target pose as x,y,z or x,y,z,roll,pitch,yaw with angles in degrees",
						Required: true,
					},
					&cli.IntFlag{
						Name:  flagMaxIterations,
						Usage: "iteration budget",
					},
					&cli.Float64Flag{
						Name:  flagTolerance,
						Usage: "weighted squared pose error at which the search succeeds",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "save a plot of the error at each iteration to `FILE` (.png, .svg or .pdf)",
					},
				},
				Action: r.inverseKinematicsAction,
			},
		},
	}
}

func (r *runner) before(c *cli.Context) error {
	level := logging.INFO
	if c.Bool(generalFlagDebug) {
		level = logging.DEBUG
	}
	var w io.Writer = c.App.ErrWriter
	if path := c.String(generalFlagLogFile); path != "" {
		r.logFile = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 2,
		}
		w = r.logFile
	}
	r.logger = logging.NewWriterLogger("bodytree", level, w)
	return nil
}

func (r *runner) after(c *cli.Context) error {
	if r.logFile == nil {
		return nil
	}
	return multierr.Combine(r.logger.Sync(), r.logFile.Close())
}

func (r *runner) loadModel(c *cli.Context) (*bodytree.Model, error) {
	path := c.String(modelFlag)
	model, err := bodytree.ParseModelJSONFile(path, "", r.logger.Sublogger("loader"))
	if err != nil {
		return nil, err
	}
	r.logger.Infow("loaded model", "file", path, "name", model.Name, "bodies", model.Tree.NumBodies(),
		"dofs", model.Tree.NumDofs())
	return model, nil
}

func printf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format+"\n", a...)
}

func successf(w io.Writer, format string, a ...interface{}) {
	color.New(color.FgGreen, color.Bold).Fprintf(w, format+"\n", a...)
}

func warningf(w io.Writer, format string, a ...interface{}) {
	color.New(color.FgYellow, color.Bold).Fprint(w, "Warning: ")
	fmt.Fprintf(w, format+"\n", a...)
}
