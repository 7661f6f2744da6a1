package properties

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"spl/spl"
)

var (
	ErrPropertyNoSet = fmt.Errorf("property is required, but not set")
	ErrPropertyIsNil = fmt.Errorf("property and proerty default is nil")
)

type properties struct {
	*viper.Viper
	runtime *viper.Viper
}

func (p *properties) Sub(key string) spl.Properties {
	sub := p.Viper.Sub(key)
	if sub == nil {
		return nil
	}
	return &properties{Viper: sub, runtime: p.runtime}
}

func (p *properties) PrefixKeys(prefix string) []string {
	all := p.Viper.GetStringMap(prefix)
	keys := make([]string, 0)
	for key := range all {
		keys = append(keys, key)
	}
	return keys
}

func (p *properties) Global() spl.Properties {
	return &properties{Viper: p.runtime, runtime: p.runtime}
}

func (p *properties) GetStringSlice(property spl.Property) []string {
	return p.Viper.GetStringSlice(property.Name())
}

func (p *properties) GetString(property spl.Property) string {
	return p.Viper.GetString(property.Name())
}

func (p *properties) GetInt(property spl.Property) int {
	return p.Viper.GetInt(property.Name())
}

func (p *properties) GetUint64(property spl.Property) uint64 {
	return p.Viper.GetUint64(property.Name())
}

func (p *properties) GetFloat64(property spl.Property) float64 {
	return p.Viper.GetFloat64(property.Name())
}

func (p *properties) GetBool(property spl.Property) bool {
	return p.Viper.GetBool(property.Name())
}

func (p *properties) GetDuration(property spl.Property) time.Duration {
	return p.Viper.GetDuration(property.Name())
}

func InitAndRender(p spl.Properties, def spl.PropertiesDef) (string, error) {
	switch _p := p.(type) {
	case *properties:
		buffer := &bytes.Buffer{}
		tWriter := tablewriter.NewWriter(buffer)
		tWriter.SetHeader([]string{"name", "type", "value"})
		tWriter.SetAutoFormatHeaders(false)
		tWriter.SetAutoWrapText(false)

		for _, _property := range def {
			if _property.Required() {
				if !_p.Viper.IsSet(_property.Name()) {
					return "", errors.WithMessage(ErrPropertyNoSet, _property.Name())
				}
			} else {
				if _property.Default() == nil && !_p.Viper.IsSet(_property.Name()) {
					return "", errors.WithMessage(ErrPropertyIsNil, _property.Name())
				} else {
					_p.Viper.SetDefault(_property.Name(), _property.Default())
				}
			}
			tWriter.Append([]string{
				_property.Name(),
				_property.Type(),
				fmt.Sprintf("%+v", _p.Viper.Get(_property.Name())),
			})
		}
		tWriter.Render()
		return buffer.String(), nil
	default:
		return "", nil
	}
}

func RenderDef(p spl.PropertiesDef) string {
	buffer := &bytes.Buffer{}
	tWriter := tablewriter.NewWriter(buffer)
	tWriter.SetHeader([]string{"name", "description", "required", "type", "default"})
	tWriter.SetAutoFormatHeaders(false)
	tWriter.SetAutoWrapText(false)
	for _, p := range p {
		tWriter.Append([]string{
			p.Name(),
			p.Description(),
			strconv.FormatBool(p.Required()),
			p.Type(),
			fmt.Sprintf("%+v", p.Default()),
		})
	}
	tWriter.Render()
	return buffer.String()
}

func New(propertiesName string, propertiesType string, propertiesPath ...string) spl.Properties {
	v := viper.New()
	v.SetConfigName(propertiesName)
	v.SetConfigType(propertiesType)
	for _, p := range propertiesPath {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("read config error:%s", err.Error()))
	}
	return withRuntime(v)
}

//FromMap builds properties from an in-memory tree, the "global" key holds runtime properties
func FromMap(values map[string]any) spl.Properties {
	v := viper.New()
	if err := v.MergeConfigMap(values); err != nil {
		panic(fmt.Sprintf("merge config error:%s", err.Error()))
	}
	return withRuntime(v)
}

func withRuntime(v *viper.Viper) spl.Properties {
	runtime := v.Sub("global")
	if runtime == nil {
		runtime = viper.New()
	}
	return &properties{Viper: v, runtime: runtime}
}
