package main

import (
	"os/exec"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/brewsignal/brewsignal/log"
)

// StopCommand stops a running bridge by publishing to its stop topic.
var StopCommand = &cobra.Command{
	Use:     "stop [topic]",
	Short:   "Stop running bridge",
	GroupID: "commands",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		log.SetLogLevel(log.LevelWarn)
		if err = loadConfig(log.LevelWarn); err != nil {
			return
		}
		log.Debug("MQTT broker", "addr", cfg.MQTT.Broker)
		return
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if pid := cmd.Flags().Lookup("pid"); pid != nil && pid.Changed && pid.Value.String() != pid.DefValue {
			c := "ps cax | grep -qe '" + pid.Value.String() + "[[:space:]].*brewsignal' && kill -2 " + pid.Value.String()
			log.Debug("Stopping", "pid", pid.Value)
			if err := exec.Command("sh", "-c", c).Run(); err == nil {
				return nil
			}
		}
		client := mqtt.NewClient(cfg.MQTT.ClientOptions())
		t := client.Connect()
		t.Wait()
		if err := t.Error(); err != nil {
			return err
		}
		defer client.Disconnect(500)
		topic := cfg.TopicPrefix + "/bridge/stop"
		if len(args) > 0 {
			topic = args[0]
		}
		t = client.Publish(topic, 0, false, []byte{})
		t.Wait()
		return t.Error()
	},
}

func init() {
	StopCommand.Flags().StringSliceVarP(&ConfigPath, "config", "c", nil, "Path(s) to config file/directory")
	StopCommand.Flags().StringVarP(&Broker, "broker", "b", "", "MQTT broker address")
	StopCommand.Flags().IntVarP(&Port, "port", "p", 1883, "MQTT broker port")
	StopCommand.Flags().StringVar(&Username, "username", "", "MQTT client username")
	StopCommand.Flags().StringVar(&Password, "password", "", "MQTT client password")
	StopCommand.Flags().IntP("pid", "P", 0, "PID of the process")

	StopCommand.SetHelpTemplate(StopCommand.HelpTemplate() + "\n" + fullDocsFooter + "\n")

	RootCommand.AddCommand(StopCommand)
}
