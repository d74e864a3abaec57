// Command covmctl is a thin CLI that parses a DSL file and runs it through
// execute(ops) for manual testing, printing the VM output. It does not
// drive proposal lifecycle transitions. It is not a service: no HTTP or
// p2p surface.
package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/sirupsen/logrus"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/governance"
	"github.com/icn-covm/governance-vm/identity"
	"github.com/icn-covm/governance-vm/storage"
	"github.com/icn-covm/governance-vm/vm"
)

// cliLogger bridges logrus, used at this operational entrypoint, into the
// go-kit/log.Logger interface the VM/storage/lifecycle constructors expect.
type cliLogger struct {
	entry *logrus.Entry
}

func (l cliLogger) Log(keyvals ...interface{}) error {
	fields := logrus.Fields{}
	msg := ""
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, _ := keyvals[i].(string)
		if key == "msg" {
			msg, _ = keyvals[i+1].(string)
			continue
		}
		fields[key] = keyvals[i+1]
	}
	l.entry.WithFields(fields).Debug(msg)
	return nil
}

func main() {
	logrusLogger := logrus.New()
	logrusLogger.SetLevel(logrus.InfoLevel)
	var lg log.Logger = cliLogger{entry: logrus.NewEntry(logrusLogger)}

	if len(os.Args) < 2 {
		logrusLogger.Fatal("usage: covmctl <dsl-file>")
	}

	src, err := os.ReadFile(os.Args[1])
	if err != nil {
		logrusLogger.WithError(err).Fatal("failed to read program")
	}

	parser := governance.NewDSLParser()
	program, err := parser.Parse(string(src))
	if err != nil {
		reportAndExit(logrusLogger, err)
	}

	store := storage.New(lg, nil, nil)
	auth := identity.NewAuthContext("cli")
	auth.Grant(identity.GlobalNamespace, identity.RoleAdmin)

	machine := vm.New(store, auth, "governance", vm.WithLogger(lg), vm.WithMockAuth(true))
	if err := machine.Execute(program); err != nil {
		reportAndExit(logrusLogger, err)
	}

	fmt.Print(machine.Output())
}

func reportAndExit(logger *logrus.Logger, err error) {
	if cerr, ok := err.(*covmerr.Error); ok {
		logger.WithField("kind", cerr.Kind).Error(cerr.Message)
	} else {
		logger.WithError(err).Error("execution failed")
	}
	os.Exit(1)
}
