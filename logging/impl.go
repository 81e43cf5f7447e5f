package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level zap.AtomicLevel
	core  zapcore.Core
	sugar *zap.SugaredLogger
}

func newImpl(name string, level Level, core zapcore.Core) *impl {
	return newImplWithLevel(name, zap.NewAtomicLevelAt(level.AsZap()), core)
}

func newImplWithLevel(name string, level zap.AtomicLevel, core zapcore.Core) *impl {
	// The shared core accepts everything; each logger filters on its own atomic level so that
	// subloggers can be tuned independently.
	filtered, err := zapcore.NewIncreaseLevelCore(core, level)
	if err != nil {
		// a core that already drops these levels, such as the nop core
		filtered = core
	}
	sugar := zap.New(filtered, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	if name != "" {
		sugar = sugar.Named(name)
	}
	return &impl{name: name, level: level, core: core, sugar: sugar}
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return newImplWithLevel(newName, zap.NewAtomicLevelAt(imp.level.Level()), imp.core)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	return Level(imp.level.Level())
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.sugar.WithOptions(zap.AddCallerSkip(-1))
}

func (imp *impl) Sync() error {
	return imp.sugar.Sync()
}

func (imp *impl) Debug(args ...interface{}) {
	imp.sugar.Debug(args...)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.sugar.Debugf(template, args...)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Debugw(msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) {
	imp.sugar.Info(args...)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.sugar.Infof(template, args...)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.sugar.Infow(msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) {
	imp.sugar.Warn(args...)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.sugar.Warnf(template, args...)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Warnw(msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) {
	imp.sugar.Error(args...)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.sugar.Errorf(template, args...)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Errorw(msg, keysAndValues...)
}
